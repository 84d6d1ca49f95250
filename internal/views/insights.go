package views

import (
	"fmt"
	"sort"
	"strings"

	"rfpdash/internal"
)

const (
	PageDashboard   = "dashboard"
	PageRfpResponse = "rfp_response"
	PageTechnical   = "technical_agent"
	PageSales       = "sales_agent"
	PagePricing     = "pricing_agent"
)

var pageAliases = map[string]string{
	"dashboard":       PageDashboard,
	"rfp":             PageRfpResponse,
	"rfp_response":    PageRfpResponse,
	"technical":       PageTechnical,
	"technical_agent": PageTechnical,
	"sales":           PageSales,
	"sales_agent":     PageSales,
	"pricing":         PagePricing,
	"pricing_agent":   PagePricing,
}

// Pages lists the accepted page names, short forms included.
func Pages() []string {
	out := make([]string, 0, len(pageAliases))
	for k := range pageAliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// InsightsPage builds the page_type and page_data sent to the insights
// endpoint. Dashboard data comes from stats; every other page needs a result.
func InsightsPage(page string, r *internal.RfpResult, stats internal.DashboardStats) (string, map[string]any, error) {
	pageType, ok := pageAliases[strings.ToLower(strings.TrimSpace(page))]
	if !ok {
		return "", nil, fmt.Errorf("unknown page %q", page)
	}

	if pageType == PageDashboard {
		view := Dashboard(stats)
		return pageType, map[string]any{
			"pipeline_status": stats.PipelineStatus,
			"total_rfps":      view.TotalRFPs,
			"win_rate":        view.WinRate.Percent,
		}, nil
	}

	if r == nil {
		return "", nil, ErrNoResult
	}
	totals := map[string]any{
		"grand_total":         r.Summary.GrandTotal,
		"total_material_cost": r.Summary.MaterialCostTotal,
		"total_test_cost":     r.Summary.TestCostTotal,
	}

	switch pageType {
	case PageTechnical:
		return pageType, map[string]any{"items": r.TechnicalAnalysis.Items}, nil
	case PagePricing:
		return pageType, map[string]any{"pricing_summary": r.PricingAnalysis.PricingSummary, "totals": totals}, nil
	case PageSales:
		return pageType, map[string]any{
			"rfp_id":   r.RfpID,
			"title":    r.Title,
			"due_date": r.DueDate,
			"summary":  r.Summary,
		}, nil
	default:
		return pageType, map[string]any{
			"rfp_id":             r.RfpID,
			"technical_analysis": r.TechnicalAnalysis,
			"pricing_analysis": map[string]any{
				"pricing_summary": r.PricingAnalysis.PricingSummary,
				"totals":          totals,
			},
		}, nil
	}
}
