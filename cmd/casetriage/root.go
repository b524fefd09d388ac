package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/config"
)

var version = "dev"

var settingsPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casetriage",
		Short: "Casetriage - batch LLM screening for legal case files",
		Long: `Casetriage screens batches of legal case records against a fixed
condition using a local Ollama model.

It renders one prompt per case from a workbook, submits each prompt with
quality-gated retries, persists one JSON result per case, and summarizes
the run for review.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&settingsPath, "config", config.DefaultSettingsFile, "Settings file")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newSyncConfigCommand())
	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newReportCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
