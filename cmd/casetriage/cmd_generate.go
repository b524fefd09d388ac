package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/dataset"
	"github.com/fiscalia-labs/casetriage/internal/prompt"
)

func newGenerateCommand() *cobra.Command {
	var (
		caseColumn string
		noDedupe   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render one prompt file per case from the workbook",
		Long: `Read the case workbook, merge rows that share a case identifier,
and render one prompt file per case into the prompts directory.

Prompt file names are derived from the case identifier; rows without a
usable identifier fall back to their position.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, caseColumn, noDedupe)
		},
	}

	cmd.Flags().StringVar(&caseColumn, "case-column", "nuc", "Column holding the case identifier")
	cmd.Flags().BoolVar(&noDedupe, "no-dedupe", false, "Render one prompt per row without merging")

	return cmd
}

func runGenerate(cmd *cobra.Command, caseColumn string, noDedupe bool) error {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	promptCfg, err := config.LoadPromptConfig(settings.Paths.PromptConfig)
	if err != nil {
		return err
	}

	records, colsMap, err := dataset.ReadWorkbook(settings.Paths.Workbook)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("workbook %s has no data rows", settings.Paths.Workbook)
	}

	caseKeyColumn := colsMap[dataset.NormalizeKey(caseColumn)]

	if !noDedupe {
		deduped, err := dataset.DedupeByCase(records, colsMap, caseColumn)
		if err != nil {
			var noCol *dataset.ErrNoCaseColumn
			if !errors.As(err, &noCol) {
				return err
			}
			// Without the identifier column each row stands alone and
			// prompt file names fall back to row numbers.
			slog.Warn("case column not found, skipping dedupe", "column", caseColumn)
		} else {
			slog.Info("merged rows by case",
				"rows", len(records),
				"cases", len(deduped))
			records = deduped
		}
	}

	written, err := prompt.WriteAll(records, promptCfg, settings.Paths.PromptsDir, caseKeyColumn)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d prompt(s) in %s\n", len(written), settings.Paths.PromptsDir)
	return nil
}
