package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"rfpdash/internal/pipeline"
	"rfpdash/internal/views"
)

func (c *cli) pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the backend pipeline and inspect past runs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and make its result current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner := pipeline.NewRunner(c.client, c.store, c.db, c.logger)
			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			view := views.Pricing(&res.Result)
			if c.output != outputTable {
				return c.render(cmd.OutOrStdout(), view, nil)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pipeline run done trace=%s rfp=%s items=%d priced=%d totalMs=%.1f\n",
				res.TraceID, res.Result.RfpID, len(res.Result.TechnicalAnalysis.Items), view.KPIs.TotalLineItems, res.Timings["totalMs"])
			writePricing(out, view)
			return nil
		},
	})

	var limit int
	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.db.ListRuns(limit)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), list, func(w io.Writer) {
				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, []string{
						strconv.Itoa(r.ID), r.TraceID, r.RfpID, strconv.Itoa(r.Items), strconv.Itoa(r.Priced),
						fmt.Sprintf("%.1f", r.DurationMs), r.CreatedAt,
					})
				}
				writeTable(w, []string{"ID", "Trace", "RFP", "Items", "Priced", "Ms", "Created"}, rows)
			})
		},
	}
	runs.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.AddCommand(runs)
	return cmd
}

func (c *cli) technicalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "technical",
		Short: "Backend technical matching",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "match <rfp-id>",
		Short: "Run technical matching for one RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.RunTechnicalMatching(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "rfp=%s score=%g matches=%d\n", res.RfpID, res.Score, len(res.Matches))
				rows := make([][]string, 0, len(res.Matches))
				for i, m := range res.Matches {
					rows = append(rows, []string{strconv.Itoa(i + 1), flatMap(m)})
				}
				writeTable(w, []string{"#", "Match"}, rows)
			})
		},
	})
	return cmd
}
