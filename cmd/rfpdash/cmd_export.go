package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rfpdash/internal/views"
)

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current result",
	}

	var out string
	xlsx := &cobra.Command{
		Use:   "xlsx",
		Short: "Write summary, pricing and technical sheets to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := c.current()
			if r == nil {
				fmt.Fprintln(cmd.OutOrStdout(), views.EmptyPrompt)
				return nil
			}
			path := strings.TrimSpace(out)
			if path == "" {
				path = filepath.Join(c.cfg.OutputDir, exportName(r.RfpID))
			}
			if err := views.ExportWorkbook(r, path); err != nil {
				return fmt.Errorf("export xlsx: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d pricing rows and %d technical items to %s\n",
				len(r.PricingAnalysis.PricingSummary), len(r.TechnicalAnalysis.Items), path)
			return nil
		},
	}
	xlsx.Flags().StringVar(&out, "out", "", "output xlsx path (default OUTPUT_DIR/<rfp-id>.xlsx)")
	cmd.AddCommand(xlsx)
	return cmd
}

func exportName(rfpID string) string {
	repl := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "<", "_", ">", "_", "|", "_", "?", "_", "*", "_")
	name := repl.Replace(strings.TrimSpace(rfpID))
	if name == "" {
		name = "rfp"
	}
	if len(name) > 120 {
		name = name[:120]
	}
	return name + ".xlsx"
}
