package util

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// First returns the value under the first key present in m.
func First(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ToFloat accepts finite numbers and numeric strings ("500", "95%").
// Overflow, NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case float32:
		return float64(t), finite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && finite(f)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && finite(f)
	}
	return 0, false
}

// ToQty is ToFloat plus free-text quantities such as "1,200 m" or "2 drums".
// Text carrying a minus sign before a number is rejected.
func ToQty(v any) (float64, bool) {
	if f, ok := ToFloat(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok || signedPattern.MatchString(s) {
		return 0, false
	}
	// a float literal ToFloat refused (overflow, "inf") is not free text
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if qty, ok := ParseQty(s); ok && finite(qty) {
		return qty, true
	}
	return 0, false
}

var signedPattern = regexp.MustCompile(`-\s*\d`)

func ToInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ToString renders scalars the way they would print in a table cell.
// Strings come back unchanged.
func ToString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func ToStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := ToString(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ToStringMap keeps scalar entries only; nested objects are dropped.
func ToStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		if s, ok := ToString(raw); ok {
			out[k] = s
		}
	}
	return out
}

func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
