package views

import (
	"sort"
	"strconv"
	"strings"

	"rfpdash/internal"
)

const (
	TechMatched     = "Matched"
	TechNeedsReview = "Needs Review"

	defaultStandard = "IS / IEC"
)

type TechnicalRow struct {
	ItemIndex      int     `json:"item_index" yaml:"item_index"`
	Description    string  `json:"description" yaml:"description"`
	RecommendedSKU string  `json:"recommended_sku" yaml:"recommended_sku"`
	MatchPercent   float64 `json:"match_percent" yaml:"match_percent"`
	Quantity       float64 `json:"quantity" yaml:"quantity"`
	Status         string  `json:"status" yaml:"status"`
}

type TechnicalView struct {
	Empty        bool           `json:"empty" yaml:"empty"`
	Prompt       string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Rows         []TechnicalRow `json:"rows" yaml:"rows"`
	Total        int            `json:"total" yaml:"total"`
	Matched      int            `json:"matched" yaml:"matched"`
	NeedsReview  int            `json:"needs_review" yaml:"needs_review"`
	AverageMatch float64        `json:"average_match" yaml:"average_match"`
}

func Technical(r *internal.RfpResult) TechnicalView {
	if r == nil {
		return TechnicalView{Empty: true, Prompt: EmptyPrompt, Rows: []TechnicalRow{}}
	}

	items := r.TechnicalAnalysis.Items
	view := TechnicalView{Rows: make([]TechnicalRow, 0, len(items)), Total: len(items)}
	sum := 0.0
	for _, item := range items {
		status := TechNeedsReview
		if item.FinalMatchPercent >= 100 {
			status = TechMatched
			view.Matched++
		} else {
			view.NeedsReview++
		}
		sum += item.FinalMatchPercent
		view.Rows = append(view.Rows, TechnicalRow{
			ItemIndex:      item.ItemIndex,
			Description:    item.Description,
			RecommendedSKU: item.FinalRecommendedSKU,
			MatchPercent:   item.FinalMatchPercent,
			Quantity:       item.Quantity,
			Status:         status,
		})
	}
	if len(items) > 0 {
		view.AverageMatch = sum / float64(len(items))
	}
	return view
}

type ComparisonRow struct {
	Parameter string   `json:"parameter" yaml:"parameter"`
	RfpValue  string   `json:"rfp_value" yaml:"rfp_value"`
	Values    []string `json:"values" yaml:"values"`
	Matched   bool     `json:"matched" yaml:"matched"`
}

// ItemComparison is the deep-dive view of one technical item against the
// SKUs it was compared with.
type ItemComparison struct {
	ItemIndex       int             `json:"item_index" yaml:"item_index"`
	Description     string          `json:"description" yaml:"description"`
	RecommendedSKU  string          `json:"recommended_sku" yaml:"recommended_sku"`
	MatchPercent    float64         `json:"match_percent" yaml:"match_percent"`
	Standard        string          `json:"standard" yaml:"standard"`
	MismatchReasons []string        `json:"mismatch_reasons" yaml:"mismatch_reasons"`
	Parameters      []string        `json:"parameters" yaml:"parameters"`
	Matched         []string        `json:"matched" yaml:"matched"`
	Mismatched      []string        `json:"mismatched" yaml:"mismatched"`
	SKUs            []string        `json:"skus" yaml:"skus"`
	Rows            []ComparisonRow `json:"rows" yaml:"rows"`
}

// FindItem looks an item up by its index after numeric coercion, so "2",
// " 2 " and "2.0" all find item 2. Anything non-numeric finds nothing.
func FindItem(r *internal.RfpResult, index string) (internal.TechnicalItem, error) {
	if r == nil {
		return internal.TechnicalItem{}, ErrNoResult
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(index), 64)
	if err != nil {
		return internal.TechnicalItem{}, ErrItemNotFound
	}
	for _, item := range r.TechnicalAnalysis.Items {
		if float64(item.ItemIndex) == want {
			return item, nil
		}
	}
	return internal.TechnicalItem{}, ErrItemNotFound
}

// CompareItem splits an item's parameters into those where the recommended
// SKU carries exactly the required value and those where it does not. Text
// compares byte for byte and never equals a number; a value missing on either
// side never matches.
func CompareItem(r *internal.RfpResult, index string) (ItemComparison, error) {
	item, err := FindItem(r, index)
	if err != nil {
		return ItemComparison{}, err
	}

	out := ItemComparison{
		ItemIndex:       item.ItemIndex,
		Description:     item.Description,
		RecommendedSKU:  item.FinalRecommendedSKU,
		MatchPercent:    item.FinalMatchPercent,
		Standard:        defaultStandard,
		MismatchReasons: append([]string{}, item.MismatchReasons...),
		Matched:         []string{},
		Mismatched:      []string{},
		SKUs:            []string{},
		Rows:            []ComparisonRow{},
	}
	if s := strings.TrimSpace(item.RfpSpecs["standard"]); s != "" {
		out.Standard = s
	}

	table := item.ComparisonTable
	if table == nil {
		// without a comparison table nothing can be confirmed against the required specs
		for _, param := range sortedKeys(item.RfpSpecs) {
			out.Parameters = append(out.Parameters, param)
			out.Mismatched = append(out.Mismatched, param)
			out.Rows = append(out.Rows, ComparisonRow{Parameter: param, RfpValue: item.RfpSpecs[param], Values: []string{}})
		}
		if out.Parameters == nil {
			out.Parameters = []string{}
		}
		return out, nil
	}

	var recommended map[string]internal.SpecValue
	for _, sku := range table.SKUs {
		out.SKUs = append(out.SKUs, sku.SkuID)
		if recommended == nil && item.FinalRecommendedSKU != "" && sku.SkuID == item.FinalRecommendedSKU {
			recommended = sku.Values
		}
	}

	out.Parameters = append([]string{}, table.Parameters...)
	for _, param := range table.Parameters {
		required, hasRequired := table.RfpValues[param]
		offered, hasOffered := recommended[param]
		matched := hasRequired && hasOffered && required == offered

		values := make([]string, len(table.SKUs))
		for i, sku := range table.SKUs {
			values[i] = sku.Values[param].String()
		}
		out.Rows = append(out.Rows, ComparisonRow{Parameter: param, RfpValue: required.String(), Values: values, Matched: matched})

		if matched {
			out.Matched = append(out.Matched, param)
		} else {
			out.Mismatched = append(out.Mismatched, param)
		}
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
