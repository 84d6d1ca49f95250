package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rfpdash/internal"
)

func (c *cli) rfpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfps",
		Short: "List and inspect RFPs known to the backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List RFPs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rfps, err := c.client.ListRFPs(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), rfps, func(w io.Writer) {
				rows := make([][]string, 0, len(rfps))
				for _, r := range rfps {
					rows = append(rows, []string{r.ID, r.Name, r.Issuer, r.DueDate, string(r.Status)})
				}
				writeTable(w, []string{"ID", "Name", "Issuer", "Due", "Status"}, rows)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rfp, err := c.client.GetRFP(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), rfp, func(w io.Writer) { writeRfp(w, rfp) })
		},
	})
	return cmd
}

func writeRfp(w io.Writer, rfp internal.RfpSummary) {
	writeKV(w, [][2]string{
		{"id", rfp.ID},
		{"name", rfp.Name},
		{"issuer", rfp.Issuer},
		{"due", rfp.DueDate},
		{"status", string(rfp.Status)},
		{"scope", rfp.Scope},
		{"requirements", strings.Join(rfp.Requirements, "; ")},
	})
}
