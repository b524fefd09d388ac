package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/wizard"
)

// defaultPromptTemplate is the starter template written by init. The
// labeled sections ("Condición:", "Datos del caso") are load-bearing:
// reporting recovers the condition from them when a case fails.
const defaultPromptTemplate = `Eres un analista jurídico. Evalúa si el siguiente caso cumple la condición indicada.

Condición: {{CONDITION}}

Datos del caso:
` + "```json\n{{RECORD_JSON}}\n```" + `

Responde únicamente con un objeto JSON que siga este esquema:
` + "```json\n{{OUTPUT_SCHEMA}}\n```" + `
`

func defaultOutputSchema() map[string]any {
	return map[string]any{
		"meets_condition": "true | false | unknown",
		"confidence":      0.0,
		"rationale_short": "una o dos frases",
	}
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up a new screening project interactively",
		Long: `Initialize a screening project in the current directory.

An interactive wizard collects the model, server, and screening
condition, then writes the settings file, a starter prompt
configuration, and the workspace directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration files")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	if !force {
		if _, err := os.Stat(settingsPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", settingsPath)
		}
	}

	spec, err := wizard.RunInitWizard(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	settings := config.DefaultSettings()
	settings.OllamaHost = spec.Host
	settings.DelaySeconds = spec.DelaySeconds

	for _, dir := range []string{
		filepath.Dir(settings.Paths.Workbook),
		filepath.Dir(settings.Paths.PromptConfig),
		settings.Paths.ReferenceDir,
		settings.Paths.PromptsDir,
		settings.Paths.ResponsesDir,
		filepath.Dir(settings.Paths.ReportFile),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := settings.Save(settingsPath); err != nil {
		return err
	}

	promptCfg := &config.PromptConfig{
		Model:          spec.Model,
		UseJSONFormat:  spec.UseJSONFormat,
		Condition:      spec.Condition,
		PromptTemplate: defaultPromptTemplate,
		OutputSchema:   defaultOutputSchema(),
	}
	if err := promptCfg.Save(settings.Paths.PromptConfig); err != nil {
		return err
	}

	// Reference files let the condition and template be edited as plain
	// text and folded back in with sync-config.
	refTemplate := filepath.Join(settings.Paths.ReferenceDir, "prompt_template.md")
	refCondition := filepath.Join(settings.Paths.ReferenceDir, "condition.txt")
	if err := os.WriteFile(refTemplate, []byte(defaultPromptTemplate), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", refTemplate, err)
	}
	if err := os.WriteFile(refCondition, []byte(spec.Condition+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", refCondition, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", settingsPath)
	fmt.Fprintf(out, "Created %s\n", settings.Paths.PromptConfig)
	fmt.Fprintf(out, "Created %s\n", settings.Paths.ReferenceDir)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Next steps:\n")
	fmt.Fprintf(out, "  1. Place the case workbook at %s\n", settings.Paths.Workbook)
	fmt.Fprintf(out, "  2. casetriage generate\n")
	fmt.Fprintf(out, "  3. casetriage process\n")
	fmt.Fprintf(out, "  4. casetriage report\n")
	return nil
}
