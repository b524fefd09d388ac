// Package batch walks a directory of rendered prompts, dispatches each
// one through the retry pipeline, and persists per-prompt results plus a
// run summary.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalia-labs/casetriage/internal/dispatch"
	"github.com/fiscalia-labs/casetriage/internal/models"
	"github.com/fiscalia-labs/casetriage/internal/prompt"
	"github.com/fiscalia-labs/casetriage/internal/summary"
)

// ErrNoPrompts is returned when the prompts directory contains no prompt
// files.
var ErrNoPrompts = errors.New("no prompt files found")

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventBatchStart     EventType = "batch_start"
	EventBatchComplete  EventType = "batch_complete"
	EventBatchStopped   EventType = "batch_stopped"
	EventPromptStart    EventType = "prompt_start"
	EventPromptComplete EventType = "prompt_complete"
	EventPromptSkipped  EventType = "prompt_skipped"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType    EventType
	PromptFile   string
	PromptNum    int
	TotalPrompts int
	Success      bool
	Attempts     int
	Error        string
}

// Runner drains a prompts directory through a dispatcher. Prompts are
// processed sequentially in lexicographic file order, one result file
// per prompt, each persisted before the next prompt starts.
type Runner struct {
	dispatcher   *dispatch.Dispatcher
	promptsDir   string
	responsesDir string
	delay        time.Duration

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDelay sets the pause inserted between consecutive dispatches. No
// pause follows the final prompt.
func WithDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.delay = d
	}
}

// NewRunner creates a batch runner over the given directories.
func NewRunner(dispatcher *dispatch.Dispatcher, promptsDir, responsesDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		dispatcher:   dispatcher,
		promptsDir:   promptsDir,
		responsesDir: responsesDir,
		listeners:    []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run processes every pending prompt and returns the run summary. The
// summary is computed by re-reading the results directory, so it covers
// results persisted by earlier, interrupted runs as well. Cancelling ctx
// stops the batch between prompts; results already persisted are kept
// and a partial summary is still returned.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	prompts, err := r.listPrompts()
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPrompts, r.promptsDir)
	}

	if err := os.MkdirAll(r.responsesDir, 0755); err != nil {
		return nil, fmt.Errorf("creating responses directory: %w", err)
	}

	runID := uuid.NewString()
	slog.Info("starting batch", "run_id", runID, "prompts", len(prompts))

	r.notifyProgress(ProgressEvent{
		EventType:    EventBatchStart,
		TotalPrompts: len(prompts),
	})

	// Prompts with an existing result file drop out before numbering, so
	// prompt numbers always run 1..N over the pending subset, even on a
	// resumed batch.
	var pending []models.Prompt
	for i, p := range prompts {
		if _, err := os.Stat(filepath.Join(r.responsesDir, p.ResponseFile())); err == nil {
			r.notifyProgress(ProgressEvent{
				EventType:    EventPromptSkipped,
				PromptFile:   p.File,
				PromptNum:    i + 1,
				TotalPrompts: len(prompts),
			})
			continue
		}
		pending = append(pending, p)
	}

	stopped := false
	for i, p := range pending {
		if ctx.Err() != nil {
			stopped = true
			break
		}

		responsePath := filepath.Join(r.responsesDir, p.ResponseFile())

		r.notifyProgress(ProgressEvent{
			EventType:    EventPromptStart,
			PromptFile:   p.File,
			PromptNum:    i + 1,
			TotalPrompts: len(pending),
		})

		res, state := r.dispatcher.SendWithRetry(ctx, p.Text)
		res.PromptFile = p.File
		res.PromptNumber = i + 1
		if res.Success {
			r.augment(res, p.Text)
		}

		// A failure caused by cancellation is not a real outcome; leave
		// no result file so a later run re-attempts this prompt.
		if ctx.Err() != nil && !res.Success {
			stopped = true
			break
		}

		if err := persistResult(res, responsePath); err != nil {
			return nil, err
		}

		event := ProgressEvent{
			EventType:    EventPromptComplete,
			PromptFile:   p.File,
			PromptNum:    i + 1,
			TotalPrompts: len(pending),
			Success:      res.Success,
			Attempts:     res.Attempts(),
		}
		if res.Error != nil {
			event.Error = *res.Error
		}
		r.notifyProgress(event)

		if state == dispatch.StateExhausted && ctx.Err() != nil {
			stopped = true
			break
		}

		if r.delay > 0 && i < len(pending)-1 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				stopped = true
			}
			if stopped {
				break
			}
		}
	}

	results, err := summary.LoadDir(context.WithoutCancel(ctx), r.responsesDir)
	if err != nil {
		return nil, err
	}
	s := summary.Compute(results)
	s.Processing.RunID = runID

	if stopped {
		r.notifyProgress(ProgressEvent{EventType: EventBatchStopped, TotalPrompts: len(prompts)})
		slog.Info("batch stopped", "run_id", runID, "completed", len(results))
		return s, ctx.Err()
	}

	r.notifyProgress(ProgressEvent{EventType: EventBatchComplete, TotalPrompts: len(prompts)})
	slog.Info("batch complete",
		"run_id", runID,
		"successful", s.Processing.Successful,
		"failed", s.Processing.Failed)
	return s, nil
}

// listPrompts returns the prompt files in lexicographic order, which
// gives deterministic processing order and prompt numbering.
func (r *Runner) listPrompts() ([]models.Prompt, error) {
	entries, err := os.ReadDir(r.promptsDir)
	if err != nil {
		return nil, fmt.Errorf("reading prompts directory %s: %w", r.promptsDir, err)
	}

	var prompts []models.Prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), models.PromptExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.promptsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading prompt %s: %w", entry.Name(), err)
		}
		prompts = append(prompts, models.Prompt{
			ID:   models.PromptStem(entry.Name()),
			Text: string(data),
			File: entry.Name(),
		})
	}

	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].File < prompts[j].File
	})
	return prompts, nil
}

// augment copies the identifying fields from the prompt back onto a
// successful answer, so downstream reports never need the source
// workbook.
func (r *Runner) augment(res *models.Result, promptText string) {
	if res.Response == nil {
		return
	}
	values := prompt.ExtractOriginalValues(promptText)
	if values.NUC != "" {
		res.Response.Set(models.FieldNUC, values.NUC)
	}
	if values.Condition != "" {
		res.Response.Set(models.FieldCondition, values.Condition)
	}
	if values.Hechos != "" {
		res.Response.Set(models.FieldHechos, values.Hechos)
	}
}

func persistResult(res *models.Result, path string) error {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("writing result %s: %w", path, err)
	}
	return nil
}
