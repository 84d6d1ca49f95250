package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"rfpdash/internal"
	"rfpdash/internal/util"
)

// ToRfpResult converts an untyped pipeline payload into a validated RfpResult.
// Known field-name variants are accepted, numeric strings are parsed and
// percentages are clamped. Negative or non-finite money, text that is not a
// number and duplicate item indexes are rejected.
func ToRfpResult(raw map[string]any) (internal.RfpResult, error) {
	var n numbers
	result := internal.RfpResult{
		RfpID:   str(raw, "rfp_id", "rfpId", "id"),
		Title:   str(raw, "title"),
		Issuer:  str(raw, "issuer"),
		DueDate: str(raw, "due_date", "dueDate"),
	}

	summary, _ := obj(raw, "summary")
	result.Summary = internal.Summary{
		MaterialCostTotal: n.get(summary, "summary.", "total_material_cost", "material_cost_total", "materialCostTotal"),
		TestCostTotal:     n.get(summary, "summary.", "total_test_cost", "test_cost_total", "testCostTotal"),
		GrandTotal:        n.get(summary, "summary.", "grand_total_cost", "grand_total", "grandTotal"),
	}

	pricing, _ := obj(raw, "pricing_analysis", "pricingAnalysis")
	lines, err := toPricingLines(pricing, &n)
	if err != nil {
		return internal.RfpResult{}, err
	}
	result.PricingAnalysis.PricingSummary = lines

	technical, _ := obj(raw, "technical_analysis", "technicalAnalysis")
	items, err := toTechnicalItems(technical, &n)
	if err != nil {
		return internal.RfpResult{}, err
	}
	result.TechnicalAnalysis.Items = items
	if n.err != nil {
		return internal.RfpResult{}, n.err
	}

	if proposal, ok := util.First(raw, "sales_proposal", "salesProposal"); ok {
		blob, err := json.Marshal(proposal)
		if err != nil {
			return internal.RfpResult{}, fmt.Errorf("sales_proposal: %w", err)
		}
		result.SalesProposal = blob
	}

	if err := result.Validate(); err != nil {
		return internal.RfpResult{}, err
	}
	return result, nil
}

func toPricingLines(pricing map[string]any, n *numbers) ([]internal.PricingLine, error) {
	rows := arr(pricing, "pricing_summary", "pricingSummary")
	out := make([]internal.PricingLine, 0, len(rows))
	for i, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pricing_summary[%d] is not an object", i)
		}
		path := fmt.Sprintf("pricing_summary[%d].", i)
		line := internal.PricingLine{
			ItemNo:       str(m, "item_no", "itemNo"),
			SKU:          str(m, "sku"),
			Quantity:     n.qty(m, path, "quantity"),
			MaterialCost: n.get(m, path, "material_cost", "materialCost"),
			TestCost:     n.get(m, path, "test_cost_total", "test_cost", "testCost"),
			TotalCost:    n.get(m, path, "total_cost", "totalCost"),
			MatchPercent: util.ClampPercent(n.get(m, path, "match_percent", "matchPercent")),
		}
		out = append(out, line)
	}
	return out, nil
}

func toTechnicalItems(technical map[string]any, n *numbers) ([]internal.TechnicalItem, error) {
	rows := arr(technical, "items")
	out := make([]internal.TechnicalItem, 0, len(rows))
	for i, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("items[%d] is not an object", i)
		}
		rawIndex, _ := util.First(m, "item_index", "itemIndex", "item_no")
		index, ok := util.ToInt(rawIndex)
		if !ok {
			return nil, fmt.Errorf("items[%d] has no integer item_index", i)
		}
		path := fmt.Sprintf("items[%d].", i)
		item := internal.TechnicalItem{
			ItemIndex:           index,
			Description:         str(m, "description", "item_description"),
			FinalRecommendedSKU: str(m, "final_recommended_sku", "finalRecommendedSku"),
			FinalMatchPercent:   util.ClampPercent(n.get(m, path, "final_match_percent", "finalMatchPercent")),
			Quantity:            n.qty(m, path, "quantity"),
		}
		if specs, ok := util.First(m, "rfp_specs", "rfpSpecs"); ok {
			item.RfpSpecs = util.ToStringMap(specs)
		}
		if reasons, ok := util.First(m, "mismatch_reasons", "mismatchReasons"); ok {
			item.MismatchReasons = util.ToStringSlice(reasons)
		}
		if table, ok := obj(m, "comparison_table", "comparisonTable"); ok {
			item.ComparisonTable = toComparisonTable(table, path+"comparison_table.", n)
		}
		out = append(out, item)
	}
	return out, nil
}

func toComparisonTable(m map[string]any, path string, n *numbers) *internal.ComparisonTable {
	table := &internal.ComparisonTable{
		Parameters: util.ToStringSlice(m["parameters"]),
		RfpValues:  map[string]internal.SpecValue{},
		SKUs:       []internal.SkuValues{},
	}
	if table.Parameters == nil {
		table.Parameters = []string{}
	}
	if values, ok := util.First(m, "rfp_values", "rfpValues"); ok {
		table.RfpValues = specValues(values)
	}
	for i, raw := range arr(m, "skus") {
		sku, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		entry := internal.SkuValues{
			SkuID:        str(sku, "sku_id", "skuId", "sku"),
			Values:       specValues(sku["values"]),
			MatchPercent: util.ClampPercent(n.get(sku, fmt.Sprintf("%sskus[%d].", path, i), "match_percent", "matchPercent")),
		}
		table.SKUs = append(table.SKUs, entry)
	}
	return table
}

// specValues keeps text cells byte for byte and numeric cells as numbers.
// Anything else (objects, booleans, non-finite numbers) is dropped.
func specValues(v any) map[string]internal.SpecValue {
	out := map[string]internal.SpecValue{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, raw := range m {
		switch t := raw.(type) {
		case string:
			out[k] = internal.TextValue(t)
		case json.Number, float64, int:
			if f, ok := util.ToFloat(t); ok {
				out[k] = internal.NumberValue(f)
			}
		}
	}
	return out
}

func obj(m map[string]any, keys ...string) (map[string]any, bool) {
	v, ok := util.First(m, keys...)
	if !ok {
		return nil, false
	}
	out, ok := v.(map[string]any)
	return out, ok
}

func arr(m map[string]any, keys ...string) []any {
	v, ok := util.First(m, keys...)
	if !ok {
		return nil
	}
	out, _ := v.([]any)
	return out
}

func str(m map[string]any, keys ...string) string {
	v, ok := util.First(m, keys...)
	if !ok {
		return ""
	}
	s, _ := util.ToString(v)
	return strings.TrimSpace(s)
}

// numbers reads numeric fields and remembers the first one that held
// something other than a finite number.
type numbers struct {
	err error
}

func (n *numbers) get(m map[string]any, path string, keys ...string) float64 {
	return n.read(m, path, util.ToFloat, keys)
}

func (n *numbers) qty(m map[string]any, path string, keys ...string) float64 {
	return n.read(m, path, util.ToQty, keys)
}

func (n *numbers) read(m map[string]any, path string, conv func(any) (float64, bool), keys []string) float64 {
	v, ok := util.First(m, keys...)
	if !ok {
		return 0
	}
	f, ok := conv(v)
	if !ok {
		if n.err == nil {
			n.err = fmt.Errorf("%s%s: %v is not a finite number", path, keys[0], v)
		}
		return 0
	}
	return f
}
