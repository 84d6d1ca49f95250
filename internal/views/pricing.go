package views

import "rfpdash/internal"

// StatusCompleted is the only pricing status: partial pricing is not modelled.
const StatusCompleted = "Completed"

type PricingRow struct {
	ItemNo       string  `json:"item_no" yaml:"item_no"`
	SKU          string  `json:"sku" yaml:"sku"`
	Quantity     float64 `json:"quantity" yaml:"quantity"`
	MaterialCost float64 `json:"material_cost" yaml:"material_cost"`
	TestCost     float64 `json:"test_cost" yaml:"test_cost"`
	TotalCost    float64 `json:"total_cost" yaml:"total_cost"`
	MatchPercent float64 `json:"match_percent" yaml:"match_percent"`
	Status       string  `json:"status" yaml:"status"`
}

type PricingKPIs struct {
	TotalLineItems int     `json:"total_line_items" yaml:"total_line_items"`
	Completed      int     `json:"completed" yaml:"completed"`
	MaterialCost   float64 `json:"material_cost" yaml:"material_cost"`
	TestCost       float64 `json:"test_cost" yaml:"test_cost"`
	GrandTotal     float64 `json:"grand_total" yaml:"grand_total"`
}

type PricingView struct {
	Empty  bool         `json:"empty" yaml:"empty"`
	Prompt string       `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	RfpID  string       `json:"rfp_id,omitempty" yaml:"rfp_id,omitempty"`
	Rows   []PricingRow `json:"rows" yaml:"rows"`
	KPIs   PricingKPIs  `json:"kpis" yaml:"kpis"`
}

func Pricing(r *internal.RfpResult) PricingView {
	if r == nil {
		return PricingView{Empty: true, Prompt: EmptyPrompt, Rows: []PricingRow{}}
	}

	lines := r.PricingAnalysis.PricingSummary
	rows := make([]PricingRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, PricingRow{
			ItemNo:       line.ItemNo,
			SKU:          line.SKU,
			Quantity:     line.Quantity,
			MaterialCost: line.MaterialCost,
			TestCost:     line.TestCost,
			TotalCost:    line.TotalCost,
			MatchPercent: line.MatchPercent,
			Status:       StatusCompleted,
		})
	}

	completed := 0
	for _, row := range rows {
		if row.Status == StatusCompleted {
			completed++
		}
	}

	return PricingView{
		RfpID: r.RfpID,
		Rows:  rows,
		KPIs: PricingKPIs{
			TotalLineItems: len(rows),
			Completed:      completed,
			MaterialCost:   r.Summary.MaterialCostTotal,
			TestCost:       r.Summary.TestCostTotal,
			GrandTotal:     r.Summary.GrandTotal,
		},
	}
}
