package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type RfpStatus string

const (
	RfpNotStarted RfpStatus = "Not Started"
	RfpInProgress RfpStatus = "In Progress"
	RfpCompleted  RfpStatus = "Completed"
)

// RfpResult is the single root value produced by a pipeline run. Its JSON form is
// both the backend wire shape and the persisted shape.
type RfpResult struct {
	RfpID             string            `json:"rfp_id,omitempty"`
	Title             string            `json:"title,omitempty"`
	Issuer            string            `json:"issuer,omitempty"`
	DueDate           string            `json:"due_date,omitempty"`
	Summary           Summary           `json:"summary"`
	PricingAnalysis   PricingAnalysis   `json:"pricing_analysis"`
	TechnicalAnalysis TechnicalAnalysis `json:"technical_analysis"`
	SalesProposal     json.RawMessage   `json:"sales_proposal,omitempty"`
}

type Summary struct {
	MaterialCostTotal float64 `json:"total_material_cost"`
	TestCostTotal     float64 `json:"total_test_cost"`
	GrandTotal        float64 `json:"grand_total_cost"`
}

type PricingAnalysis struct {
	PricingSummary []PricingLine `json:"pricing_summary"`
}

type PricingLine struct {
	ItemNo       string  `json:"item_no"`
	SKU          string  `json:"sku"`
	Quantity     float64 `json:"quantity"`
	MaterialCost float64 `json:"material_cost"`
	TestCost     float64 `json:"test_cost_total"`
	TotalCost    float64 `json:"total_cost"`
	MatchPercent float64 `json:"match_percent"`
}

type TechnicalAnalysis struct {
	Items []TechnicalItem `json:"items"`
}

type TechnicalItem struct {
	ItemIndex           int               `json:"item_index"`
	Description         string            `json:"description"`
	FinalRecommendedSKU string            `json:"final_recommended_sku"`
	FinalMatchPercent   float64           `json:"final_match_percent"`
	Quantity            float64           `json:"quantity"`
	RfpSpecs            map[string]string `json:"rfp_specs"`
	MismatchReasons     []string          `json:"mismatch_reasons"`
	ComparisonTable     *ComparisonTable  `json:"comparison_table,omitempty"`
}

type ComparisonTable struct {
	Parameters []string             `json:"parameters"`
	RfpValues  map[string]SpecValue `json:"rfp_values"`
	SKUs       []SkuValues          `json:"skus"`
}

type SkuValues struct {
	SkuID        string               `json:"sku_id"`
	Values       map[string]SpecValue `json:"values"`
	MatchPercent float64              `json:"match_percent"`
}

// SpecValue is one comparison cell. Text keeps its exact bytes and numbers
// keep a canonical decimal form; a number never equals text, so 3 and "3"
// differ while 2.5 and 2.50 are the same number.
type SpecValue struct {
	Value   string
	Numeric bool
}

func TextValue(s string) SpecValue { return SpecValue{Value: s} }

func NumberValue(f float64) SpecValue {
	return SpecValue{Value: strconv.FormatFloat(f, 'f', -1, 64), Numeric: true}
}

func (v SpecValue) String() string { return v.Value }

func (v SpecValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return []byte(v.Value), nil
	}
	return json.Marshal(v.Value)
}

func (v *SpecValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("comparison value %s is neither text nor a finite number", b)
	}
	*v = NumberValue(f)
	return nil
}

type RfpSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Issuer       string    `json:"issuer" yaml:"issuer"`
	DueDate      string    `json:"dueDate" yaml:"dueDate"`
	Status       RfpStatus `json:"status" yaml:"status"`
	Scope        string    `json:"scope,omitempty" yaml:"scope,omitempty"`
	Requirements []string  `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    string    `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type TechnicalMatchingResult struct {
	RfpID   string           `json:"rfp_id" yaml:"rfp_id"`
	Matches []map[string]any `json:"matches" yaml:"matches"`
	Score   float64          `json:"score" yaml:"score"`
}

type PipelineStatus struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

type AgentContribution struct {
	Agents []string `json:"agents"`
	Tasks  []int    `json:"tasks"`
}

type TechnicalSpecs struct {
	Items       []string `json:"items"`
	MatchScores []int    `json:"match_scores"`
}

type PricingBreakdown struct {
	RFPs         []string  `json:"rfps"`
	MaterialCost []float64 `json:"material_cost"`
	TestingCost  []float64 `json:"testing_cost"`
}

type WinProbability struct {
	RFPs           []string `json:"rfps"`
	WinProbability []int    `json:"win_probability"`
}

type DashboardStats struct {
	PipelineStatus    PipelineStatus    `json:"pipelineStatus"`
	AgentContribution AgentContribution `json:"agentContribution"`
	TechnicalSpecs    TechnicalSpecs    `json:"technicalSpecs"`
	PricingBreakdown  PricingBreakdown  `json:"pricingBreakdown"`
	WinProbability    WinProbability    `json:"winProbability"`
}

type InsightsRequest struct {
	PageType string `json:"page_type"`
	PageData any    `json:"page_data,omitempty"`
}

type KeyMetric struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

type Risk struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type Insights struct {
	Summary         string      `json:"summary" yaml:"summary"`
	KeyMetrics      []KeyMetric `json:"key_metrics,omitempty" yaml:"key_metrics,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Risks           []Risk      `json:"risks,omitempty" yaml:"risks,omitempty"`
}

type PipelineRun struct {
	ID         int     `json:"id" yaml:"id"`
	TraceID    string  `json:"trace_id" yaml:"trace_id"`
	RfpID      string  `json:"rfp_id" yaml:"rfp_id"`
	Items      int     `json:"items" yaml:"items"`
	Priced     int     `json:"priced" yaml:"priced"`
	DurationMs float64 `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt  string  `json:"created_at" yaml:"created_at"`
}

// Validate checks the invariants every held result must satisfy.
func (r RfpResult) Validate() error {
	if err := nonNegative("summary.total_material_cost", r.Summary.MaterialCostTotal); err != nil {
		return err
	}
	if err := nonNegative("summary.total_test_cost", r.Summary.TestCostTotal); err != nil {
		return err
	}
	if err := nonNegative("summary.grand_total_cost", r.Summary.GrandTotal); err != nil {
		return err
	}
	if len(r.SalesProposal) > 0 && !json.Valid(r.SalesProposal) {
		return fmt.Errorf("sales_proposal is not valid JSON")
	}

	for i, line := range r.PricingAnalysis.PricingSummary {
		fields := []struct {
			name  string
			value float64
		}{
			{"quantity", line.Quantity},
			{"material_cost", line.MaterialCost},
			{"test_cost_total", line.TestCost},
			{"total_cost", line.TotalCost},
		}
		for _, f := range fields {
			if err := nonNegative(fmt.Sprintf("pricing_summary[%d].%s", i, f.name), f.value); err != nil {
				return err
			}
		}
		if err := percent(fmt.Sprintf("pricing_summary[%d].match_percent", i), line.MatchPercent); err != nil {
			return err
		}
	}

	seen := map[int]struct{}{}
	for i, item := range r.TechnicalAnalysis.Items {
		if _, dup := seen[item.ItemIndex]; dup {
			return fmt.Errorf("duplicate item_index %d", item.ItemIndex)
		}
		seen[item.ItemIndex] = struct{}{}
		if err := nonNegative(fmt.Sprintf("items[%d].quantity", i), item.Quantity); err != nil {
			return err
		}
		if err := percent(fmt.Sprintf("items[%d].final_match_percent", i), item.FinalMatchPercent); err != nil {
			return err
		}
		if item.ComparisonTable == nil {
			continue
		}
		for j, sku := range item.ComparisonTable.SKUs {
			if err := percent(fmt.Sprintf("items[%d].skus[%d].match_percent", i, j), sku.MatchPercent); err != nil {
				return err
			}
		}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a non-negative finite number, got %v", field, v)
	}
	return nil
}

func percent(field string, v float64) error {
	if v < 0 || v > 100 || math.IsNaN(v) {
		return fmt.Errorf("%s must lie in [0,100], got %v", field, v)
	}
	return nil
}

// Clone returns a deep copy; nil and empty collections keep their distinction.
func (r RfpResult) Clone() RfpResult {
	out := r
	if r.SalesProposal != nil {
		out.SalesProposal = append(json.RawMessage{}, r.SalesProposal...)
	}
	if r.PricingAnalysis.PricingSummary != nil {
		out.PricingAnalysis.PricingSummary = append([]PricingLine{}, r.PricingAnalysis.PricingSummary...)
	}
	if r.TechnicalAnalysis.Items != nil {
		items := make([]TechnicalItem, len(r.TechnicalAnalysis.Items))
		for i, item := range r.TechnicalAnalysis.Items {
			items[i] = item.clone()
		}
		out.TechnicalAnalysis.Items = items
	}
	return out
}

func (t TechnicalItem) clone() TechnicalItem {
	out := t
	out.RfpSpecs = cloneMap(t.RfpSpecs)
	if t.MismatchReasons != nil {
		out.MismatchReasons = append([]string{}, t.MismatchReasons...)
	}
	if t.ComparisonTable != nil {
		ct := ComparisonTable{RfpValues: cloneMap(t.ComparisonTable.RfpValues)}
		if t.ComparisonTable.Parameters != nil {
			ct.Parameters = append([]string{}, t.ComparisonTable.Parameters...)
		}
		if t.ComparisonTable.SKUs != nil {
			ct.SKUs = make([]SkuValues, len(t.ComparisonTable.SKUs))
			for i, sku := range t.ComparisonTable.SKUs {
				ct.SKUs[i] = SkuValues{SkuID: sku.SkuID, Values: cloneMap(sku.Values), MatchPercent: sku.MatchPercent}
			}
		}
		out.ComparisonTable = &ct
	}
	return out
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
