package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiscalia-labs/casetriage/internal/batch"
	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/dispatch"
	"github.com/fiscalia-labs/casetriage/internal/execution"
	"github.com/fiscalia-labs/casetriage/internal/models"
	"github.com/fiscalia-labs/casetriage/internal/summary"
)

// mockAnswer is what the mock engine returns during an offline dry run.
// It passes the quality gate so the pipeline exercises the happy path.
const mockAnswer = `{"meets_condition": "unknown", "confidence": 0.9, "rationale_short": "dry run"}`

func newProcessCommand() *cobra.Command {
	var (
		verbose       bool
		engineType    string
		modelOverride string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Submit pending prompts and persist one result per case",
		Long: `Submit every pending prompt to the model with quality-gated retries.

Prompts that already have a result file are skipped, so an interrupted
batch resumes where it stopped. Each result is written before the next
prompt starts; Ctrl-C stops the batch cleanly and keeps everything
persisted so far.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, verbose, engineType, modelOverride)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-attempt progress")
	cmd.Flags().StringVar(&engineType, "engine", "ollama", "Engine type: ollama, mock")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Model to use (overrides prompt config)")

	return cmd
}

func runProcess(cmd *cobra.Command, verbose bool, engineType, modelOverride string) error {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	promptCfg, err := config.LoadPromptConfig(settings.Paths.PromptConfig)
	if err != nil {
		return err
	}

	model := promptCfg.Model
	if modelOverride != "" {
		model = modelOverride
	}

	var engine execution.Engine
	switch engineType {
	case "ollama":
		engine = execution.NewOllamaEngine(settings.OllamaHost, settings.Timeout())
	case "mock":
		engine = execution.NewMockEngine(model, execution.MockReply{Content: mockAnswer})
	default:
		return fmt.Errorf("unknown engine type: %s", engineType)
	}

	dispatcher := dispatch.New(engine, model,
		dispatch.WithJSONFormat(promptCfg.UseJSONFormat),
		dispatch.WithTimeout(settings.Timeout()),
		dispatch.WithMaxAttempts(settings.MaxAttempts),
		dispatch.WithBackoff(settings.Backoff()),
	)

	runner := batch.NewRunner(dispatcher, settings.Paths.PromptsDir, settings.Paths.ResponsesDir,
		batch.WithDelay(settings.Delay()))

	if verbose {
		runner.OnProgress(verboseProgressListener)
	} else {
		runner.OnProgress(simpleProgressListener)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Engine: %s\n", engineType)
	fmt.Printf("Model: %s\n", model)
	fmt.Printf("Prompts: %s\n", settings.Paths.PromptsDir)
	fmt.Printf("Results: %s\n", settings.Paths.ResponsesDir)
	fmt.Println()

	start := time.Now()
	runSummary, runErr := runner.Run(ctx)
	if runSummary != nil {
		printSummary(runSummary, time.Since(start))
		if err := summary.Write(runSummary, settings.Paths.SummaryFile); err != nil {
			return err
		}
		fmt.Printf("Summary saved to: %s\n", settings.Paths.SummaryFile)
	}

	// An interrupt is a clean stop, not a failure: everything completed
	// so far is persisted and the partial summary was written.
	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Batch interrupted; completed results were kept.")
		return nil
	}
	return runErr
}

func verboseProgressListener(event batch.ProgressEvent) {
	switch event.EventType {
	case batch.EventBatchStart:
		fmt.Printf("Starting batch with %d prompt(s)...\n\n", event.TotalPrompts)
	case batch.EventPromptSkipped:
		fmt.Printf("[%d/%d] %s [already done]\n", event.PromptNum, event.TotalPrompts, event.PromptFile)
	case batch.EventPromptStart:
		fmt.Printf("[%d/%d] Processing: %s\n", event.PromptNum, event.TotalPrompts, event.PromptFile)
	case batch.EventPromptComplete:
		icon := "✓"
		if !event.Success {
			icon = "✗"
		}
		fmt.Printf("  %s %s (attempt(s): %d)", icon, event.PromptFile, event.Attempts)
		if event.Error != "" {
			fmt.Printf(" — %s", event.Error)
		}
		fmt.Println()
	case batch.EventBatchStopped:
		fmt.Printf("\nBatch stopped early\n\n")
	case batch.EventBatchComplete:
		fmt.Printf("\nBatch completed\n\n")
	}
}

func simpleProgressListener(event batch.ProgressEvent) {
	switch event.EventType {
	case batch.EventPromptSkipped:
		fmt.Printf("- [%d/%d] %s [skipped]\n", event.PromptNum, event.TotalPrompts, event.PromptFile)
	case batch.EventPromptComplete:
		icon := "✓"
		if !event.Success {
			icon = "✗"
		}
		fmt.Printf("%s [%d/%d] %s\n", icon, event.PromptNum, event.TotalPrompts, event.PromptFile)
	}
}

func printSummary(s *models.RunSummary, elapsed time.Duration) {
	p := s.Processing

	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" BATCH RESULTS")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	fmt.Printf("Total Prompts:  %d\n", p.TotalPrompts)
	fmt.Printf("Successful:     %d\n", p.Successful)
	fmt.Printf("Failed:         %d\n", p.Failed)
	fmt.Printf("Success Rate:   %.1f%%\n", p.SuccessRate*100)
	fmt.Printf("Model Time:     %.1fs\n", p.TotalDurationSeconds)
	if p.Successful > 0 {
		fmt.Printf("Avg per Case:   %.1fs\n", p.AverageDurationSeconds)
	}
	fmt.Printf("Elapsed:        %v\n", elapsed.Round(time.Second))
	fmt.Println()

	r := p.RetryStatistics
	if r.PromptsWithRetries > 0 {
		fmt.Printf("Retries:        %d case(s) retried, %d attempt(s) total, max %d\n",
			r.PromptsWithRetries, r.TotalRetryAttempts, r.MaxRetryAttempts)
		fmt.Println()
	}

	if len(s.FailedPrompts) > 0 {
		fmt.Println("Failed Cases:")
		for _, f := range s.FailedPrompts {
			msg := ""
			if f.Error != nil {
				msg = *f.Error
			}
			fmt.Printf("  - %s (attempts: %d) %s\n", f.File, f.RetryAttempts, msg)
		}
		fmt.Println()
	}
}
