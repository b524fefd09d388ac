// Package wizard collects project setup answers interactively for the
// init command.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/execution"
)

// ProjectSpec holds all fields collected during the interactive wizard.
type ProjectSpec struct {
	Model         string
	Host          string
	Condition     string
	UseJSONFormat bool
	DelaySeconds  float64
}

// RunInitWizard runs an interactive huh form to collect project setup
// answers. Defaults pre-populate every field, so accepting everything
// yields a working configuration.
func RunInitWizard(in io.Reader, out io.Writer) (*ProjectSpec, error) {
	var (
		model         = config.DefaultModel
		host          = execution.DefaultHost
		condition     string
		useJSONFormat = true
		delayRaw      = "1"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model").
				Description("Ollama model tag used for every prompt").
				Placeholder(config.DefaultModel).
				Value(&model).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("model is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Ollama host").
				Description("Base URL of the Ollama server").
				Placeholder(execution.DefaultHost).
				Value(&host),
			huh.NewText().
				Title("Screening condition").
				Description("The legal condition every case is checked against").
				Placeholder("El caso involucra...").
				Value(&condition).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("condition is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Request JSON format?").
				Description("Ask the server to constrain output to JSON").
				Value(&useJSONFormat),
			huh.NewInput().
				Title("Delay between requests (seconds)").
				Value(&delayRaw).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	delay, _ := strconv.ParseFloat(strings.TrimSpace(delayRaw), 64)

	return &ProjectSpec{
		Model:         strings.TrimSpace(model),
		Host:          strings.TrimSpace(host),
		Condition:     strings.TrimSpace(condition),
		UseJSONFormat: useJSONFormat,
		DelaySeconds:  delay,
	}, nil
}
