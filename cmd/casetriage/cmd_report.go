package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/reporting"
)

func newReportCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Flatten persisted results into an XLSX review sheet",
		Long: `Build the reviewer workbook from the persisted JSON results.

One row per case: the recovered case identifier, the screening
condition, the model's verdict and confidence, and whether the case
processed successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(settingsPath)
			if err != nil {
				return err
			}

			out := outputPath
			if out == "" {
				out = settings.Paths.ReportFile
			}

			w := reporting.NewWriter(settings.Paths.ResponsesDir, settings.Paths.PromptsDir, nil)
			if err := w.WriteReport(cmd.Context(), out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output XLSX file (default: from settings)")

	return cmd
}
