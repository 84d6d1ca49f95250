package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rfpdash/internal"
	"rfpdash/internal/views"
)

func (c *cli) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights <page>",
		Short: "Ask the backend for insights on a page (" + strings.Join(views.Pages(), ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats internal.DashboardStats
			if strings.EqualFold(strings.TrimSpace(args[0]), views.PageDashboard) {
				var err error
				if stats, err = c.client.DashboardStats(cmd.Context()); err != nil {
					return err
				}
			}

			pageType, data, err := views.InsightsPage(args[0], c.current(), stats)
			if err != nil {
				return err
			}
			insights, err := c.client.Insights(cmd.Context(), pageType, data)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), insights, func(w io.Writer) { writeInsights(w, insights) })
		},
	}
}

func writeInsights(w io.Writer, in internal.Insights) {
	fmt.Fprintln(w, in.Summary)
	if len(in.KeyMetrics) > 0 {
		pairs := make([][2]string, 0, len(in.KeyMetrics))
		for _, m := range in.KeyMetrics {
			pairs = append(pairs, [2]string{m.Label, m.Value})
		}
		writeKV(w, pairs)
	}
	for _, r := range in.Recommendations {
		fmt.Fprintf(w, "- %s\n", r)
	}
	if len(in.Risks) > 0 {
		rows := make([][]string, 0, len(in.Risks))
		for _, r := range in.Risks {
			rows = append(rows, []string{r.Title, r.Description})
		}
		writeTable(w, []string{"Risk", "Description"}, rows)
	}
}
