package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rfpdash/internal"
	"rfpdash/internal/views"
)

func (c *cli) current() *internal.RfpResult {
	r, ok := c.store.Read()
	if !ok {
		return nil
	}
	return &r
}

func (c *cli) viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a page from the current pipeline result",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pricing",
		Short: "Pricing rows and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := views.Pricing(c.current())
			return c.render(cmd.OutOrStdout(), view, func(w io.Writer) { writePricing(w, view) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "technical",
		Short: "Technical match rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := views.Technical(c.current())
			return c.render(cmd.OutOrStdout(), view, func(w io.Writer) { writeTechnical(w, view) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "item <index>",
		Short: "Technical deep dive for one line item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := views.CompareItem(c.current(), args[0])
			if errors.Is(err, views.ErrNoResult) {
				fmt.Fprintln(cmd.OutOrStdout(), views.EmptyPrompt)
				return nil
			}
			if err != nil {
				return fmt.Errorf("item %s: %w", args[0], err)
			}
			return c.render(cmd.OutOrStdout(), cmp, func(w io.Writer) { writeComparison(w, cmp) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Dashboard KPIs and chart legends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				stats  internal.DashboardStats
				listed *int
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				stats, err = c.client.DashboardStats(ctx)
				return err
			})
			g.Go(func() error {
				// the KPIs come from stats alone; a failed list only loses the count
				rfps, err := c.client.ListRFPs(ctx)
				if err != nil {
					c.logger.Warn("list rfps for dashboard", zap.Error(err))
					return nil
				}
				n := len(rfps)
				listed = &n
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			view := views.Dashboard(stats)
			payload := struct {
				views.DashboardView `yaml:",inline"`
				ListedRFPs          *int `json:"listed_rfps" yaml:"listed_rfps"`
			}{view, listed}
			return c.render(cmd.OutOrStdout(), payload, func(w io.Writer) { writeDashboard(w, view, listed) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sales",
		Short: "Sales opportunities from the current result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := views.Sales(c.current())
			return c.render(cmd.OutOrStdout(), view, func(w io.Writer) { writeSales(w, view) })
		},
	})
	return cmd
}

func writePricing(w io.Writer, view views.PricingView) {
	if view.Empty {
		fmt.Fprintln(w, view.Prompt)
		return
	}
	rows := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []string{
			r.ItemNo, r.SKU, num(r.Quantity), money(r.MaterialCost), money(r.TestCost), money(r.TotalCost), pct(r.MatchPercent), r.Status,
		})
	}
	writeTable(w, []string{"Item", "SKU", "Qty", "Material", "Testing", "Total", "Match", "Status"}, rows)
	writeKV(w, [][2]string{
		{"Total Line Items", strconv.Itoa(view.KPIs.TotalLineItems)},
		{"Completed", strconv.Itoa(view.KPIs.Completed)},
		{"Material Cost", money(view.KPIs.MaterialCost)},
		{"Test Cost", money(view.KPIs.TestCost)},
		{"Grand Total", money(view.KPIs.GrandTotal)},
	})
}

func writeTechnical(w io.Writer, view views.TechnicalView) {
	if view.Empty {
		fmt.Fprintln(w, view.Prompt)
		return
	}
	rows := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []string{
			strconv.Itoa(r.ItemIndex), r.Description, r.RecommendedSKU, pct(r.MatchPercent), num(r.Quantity), r.Status,
		})
	}
	writeTable(w, []string{"Item", "Description", "Recommended SKU", "Match", "Qty", "Status"}, rows)
	fmt.Fprintf(w, "total=%d matched=%d needs_review=%d average_match=%.1f%%\n", view.Total, view.Matched, view.NeedsReview, view.AverageMatch)
}

func writeComparison(w io.Writer, cmp views.ItemComparison) {
	writeKV(w, [][2]string{
		{"Item", strconv.Itoa(cmp.ItemIndex)},
		{"Description", cmp.Description},
		{"Recommended SKU", cmp.RecommendedSKU},
		{"Match", pct(cmp.MatchPercent)},
		{"Standard", cmp.Standard},
		{"Matches", fmt.Sprintf("%d out of %d parameters", len(cmp.Matched), len(cmp.Parameters))},
		{"Exact matches", strings.Join(cmp.Matched, ", ")},
		{"Deviations", strings.Join(cmp.Mismatched, ", ")},
		{"Mismatch reasons", strings.Join(cmp.MismatchReasons, "; ")},
	})

	if len(cmp.Rows) == 0 {
		return
	}
	header := append([]string{"Parameter", "RFP Value"}, cmp.SKUs...)
	for i, sku := range cmp.SKUs {
		if sku == cmp.RecommendedSKU {
			header[i+2] = sku + " (recommended)"
		}
	}
	rows := make([][]string, 0, len(cmp.Rows))
	for _, r := range cmp.Rows {
		rows = append(rows, append([]string{r.Parameter, r.RfpValue}, r.Values...))
	}
	writeTable(w, header, rows)
}

func writeDashboard(w io.Writer, view views.DashboardView, listed *int) {
	listedText := "unknown"
	if listed != nil {
		listedText = strconv.Itoa(*listed)
	}
	writeKV(w, [][2]string{
		{"Total RFPs", strconv.Itoa(view.TotalRFPs)},
		{"Won", strconv.Itoa(view.Won)},
		{"Win Rate", view.WinRate.String()},
		{"Active Agents", strconv.Itoa(view.ActiveAgents)},
		{"Avg Technical Match", fmt.Sprintf("%.1f%%", view.AverageTechnicalMatch)},
		{"High Probability RFPs", fmt.Sprintf("%d%%", view.HighProbabilityShare)},
		{"Listed RFPs", listedText},
	})

	legend := func(title string, items []views.LabeledCount) {
		rows := make([][]string, 0, len(items))
		for _, it := range items {
			rows = append(rows, []string{it.Legend, strconv.Itoa(it.Count)})
		}
		writeTable(w, []string{title, "Count"}, rows)
	}
	legend("Pipeline Stage", view.Pipeline)
	legend("Agent", view.Agents)

	rows := make([][]string, 0, len(view.WinProbability))
	for _, r := range view.WinProbability {
		rows = append(rows, []string{r.RFP, fmt.Sprintf("%d%%", r.Probability), r.Band})
	}
	writeTable(w, []string{"RFP", "Win Probability", "Band"}, rows)
}

func writeSales(w io.Writer, view views.SalesView) {
	if view.Empty {
		fmt.Fprintln(w, view.Prompt)
		return
	}
	rows := make([][]string, 0, len(view.Opportunities))
	for _, o := range view.Opportunities {
		rows = append(rows, []string{o.ID, o.Title, o.Company, money(o.Value), o.Stage, fmt.Sprintf("%d%%", o.Probability), o.ExpectedClose})
	}
	writeTable(w, []string{"ID", "Title", "Company", "Value", "Stage", "Probability", "Expected Close"}, rows)
	fmt.Fprintf(w, "opportunities=%d in_pipeline=%d won=%d lost=%d\n", view.TotalOpportunities, view.InPipeline, view.Won, view.Lost)
}
