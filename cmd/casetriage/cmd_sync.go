package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/config"
)

func newSyncConfigCommand() *cobra.Command {
	var (
		templateFile  string
		conditionFile string
	)

	cmd := &cobra.Command{
		Use:   "sync-config",
		Short: "Fold the reference template and condition into the prompt config",
		Long: `Update prompt_config.json from the editable reference files.

The template and condition are read from the reference directory and
written into the prompt configuration. Every other key in the file is
preserved as-is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(settingsPath)
			if err != nil {
				return err
			}

			tpl := templateFile
			if tpl == "" {
				tpl = filepath.Join(settings.Paths.ReferenceDir, "prompt_template.md")
			}
			cond := conditionFile
			if cond == "" {
				cond = filepath.Join(settings.Paths.ReferenceDir, "condition.txt")
			}

			if err := config.UpdateFromReference(settings.Paths.PromptConfig, tpl, cond); err != nil {
				return err
			}

			// Re-load so schema violations introduced by the reference
			// files surface now, not at process time.
			if _, err := config.LoadPromptConfig(settings.Paths.PromptConfig); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", settings.Paths.PromptConfig)
			return nil
		},
	}

	cmd.Flags().StringVar(&templateFile, "template", "", "Template file (default: <reference_dir>/prompt_template.md)")
	cmd.Flags().StringVar(&conditionFile, "condition", "", "Condition file (default: <reference_dir>/condition.txt)")

	return cmd
}
