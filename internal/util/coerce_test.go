package util

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: 12.5, want: 12.5, ok: true},
		{in: 3, want: 3, ok: true},
		{in: "500", want: 500, ok: true},
		{in: "95%", want: 95, ok: true},
		{in: json.Number("1e400"), ok: false},
		{in: "1e400", ok: false},
		{in: "Infinity", ok: false},
		{in: "inf", ok: false},
		{in: math.NaN(), ok: false},
		{in: "Rs -500", ok: false},
		{in: "1,200 m", ok: false},
		{in: "", ok: false},
		{in: nil, ok: false},
		{in: map[string]any{}, ok: false},
	}
	for _, tc := range cases {
		got, ok := ToFloat(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "%v", tc.in)
		}
	}
}

func TestToQty(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: "500", want: 500, ok: true},
		{in: "1,200 m", want: 1200, ok: true},
		{in: "2 drums", want: 2, ok: true},
		{in: "Rs -500", ok: false},
		{in: "- 3 drums", ok: false},
		{in: "1e400", ok: false},
		{in: "Infinity", ok: false},
		{in: "to be confirmed", ok: false},
	}
	for _, tc := range cases {
		got, ok := ToQty(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "%v", tc.in)
		}
	}
}

func TestToInt(t *testing.T) {
	v, ok := ToInt("2")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = ToInt(2.5)
	assert.False(t, ok)

	_, ok = ToInt(1e19)
	assert.False(t, ok)

	_, ok = ToInt(json.Number("1e400"))
	assert.False(t, ok)
}

func TestToStringMapKeepsScalars(t *testing.T) {
	got := ToStringMap(map[string]any{"cores": 3.0, "voltage": "1.1 kV ", "nested": map[string]any{}})
	assert.Equal(t, map[string]string{"cores": "3", "voltage": "1.1 kV "}, got)
	assert.Nil(t, ToStringMap("nope"))
}

func TestFirst(t *testing.T) {
	m := map[string]any{"materialCost": 10.0, "material_cost": nil}
	v, ok := First(m, "material_cost", "materialCost")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-3))
	assert.Equal(t, 100.0, ClampPercent(140))
	assert.Equal(t, 42.0, ClampPercent(42))
}
