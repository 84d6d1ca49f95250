package views

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"rfpdash/internal"
)

const (
	SheetSummary   = "Summary"
	SheetPricing   = "Pricing"
	SheetTechnical = "Technical"
)

// ExportWorkbook writes the held result as an XLSX workbook with summary,
// pricing and technical sheets.
func ExportWorkbook(r *internal.RfpResult, outputPath string) error {
	if r == nil {
		return ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}
	writeSheet(f, SheetSummary, []string{"field", "value"}, [][]any{
		{"rfp_id", r.RfpID},
		{"title", r.Title},
		{"issuer", r.Issuer},
		{"due_date", r.DueDate},
		{"total_material_cost", r.Summary.MaterialCostTotal},
		{"total_test_cost", r.Summary.TestCostTotal},
		{"grand_total_cost", r.Summary.GrandTotal},
	})

	pricing := Pricing(r)
	pricingRows := make([][]any, 0, len(pricing.Rows))
	for _, row := range pricing.Rows {
		pricingRows = append(pricingRows, []any{
			row.ItemNo, row.SKU, row.Quantity, row.MaterialCost, row.TestCost, row.TotalCost, row.MatchPercent, row.Status,
		})
	}
	if _, err := f.NewSheet(SheetPricing); err != nil {
		return err
	}
	writeSheet(f, SheetPricing, []string{
		"item_no", "sku", "quantity", "material_cost", "test_cost_total", "total_cost", "match_percent", "status",
	}, pricingRows)

	technicalRows := make([][]any, 0, len(r.TechnicalAnalysis.Items))
	for _, item := range r.TechnicalAnalysis.Items {
		technicalRows = append(technicalRows, []any{
			item.ItemIndex, item.Description, item.FinalRecommendedSKU, item.FinalMatchPercent, item.Quantity,
			strings.Join(item.MismatchReasons, "; "),
		})
	}
	if _, err := f.NewSheet(SheetTechnical); err != nil {
		return err
	}
	writeSheet(f, SheetTechnical, []string{
		"item_index", "description", "final_recommended_sku", "final_match_percent", "quantity", "mismatch_reasons",
	}, technicalRows)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
}
