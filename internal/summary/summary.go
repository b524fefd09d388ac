// Package summary aggregates persisted dispatch results into run-level
// statistics. Summaries are computed by re-reading the results
// destination rather than from in-memory accumulation, so a batch
// resumed across process restarts still yields complete numbers.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fiscalia-labs/casetriage/internal/models"
)

// LoadDir reads every result file under dir, in parallel, and returns
// them sorted by prompt file name. A missing directory yields an empty
// slice, not an error.
func LoadDir(ctx context.Context, dir string) ([]*models.Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), models.ResponseSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	results := make([]*models.Result, 0, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := loadResult(path)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].PromptFile < results[j].PromptFile
	})
	return results, nil
}

func loadResult(path string) (*models.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result %s: %w", path, err)
	}
	var res models.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", path, err)
	}
	if res.PromptFile == "" {
		// Older runs may predate the field; recover it from the file name.
		base := filepath.Base(path)
		res.PromptFile = strings.TrimSuffix(base, models.ResponseSuffix) + models.PromptExt
	}
	return &res, nil
}

// Compute builds the run summary for a result set. The counters satisfy
// successful+failed == total and retry_rate == prompts_with_retries /
// total for any non-empty set.
func Compute(results []*models.Result) *models.RunSummary {
	s := &models.RunSummary{
		FailedPrompts:   []models.FailedPrompt{},
		DetailedResults: results,
	}

	total := len(results)
	s.Processing.TotalPrompts = total
	s.Processing.Timestamp = models.Now()

	maxAttempts := 0
	totalAttempts := 0
	withRetries := 0

	for _, res := range results {
		attempts := res.Attempts()
		totalAttempts += attempts
		if attempts > maxAttempts {
			maxAttempts = attempts
		}
		if attempts > 1 {
			withRetries++
		}

		if res.Success {
			s.Processing.Successful++
			if res.DurationSeconds != nil {
				s.Processing.TotalDurationSeconds += *res.DurationSeconds
			}
			continue
		}

		s.Processing.Failed++
		s.FailedPrompts = append(s.FailedPrompts, models.FailedPrompt{
			File:          res.PromptFile,
			Error:         res.Error,
			RetryAttempts: attempts,
		})
	}

	if total > 0 {
		s.Processing.SuccessRate = float64(s.Processing.Successful) / float64(total)
		s.Processing.RetryStatistics.AverageRetryAttempts = float64(totalAttempts) / float64(total)
		s.Processing.RetryStatistics.RetryRate = float64(withRetries) / float64(total)
	}
	if s.Processing.Successful > 0 {
		s.Processing.AverageDurationSeconds = s.Processing.TotalDurationSeconds / float64(s.Processing.Successful)
	}
	if total > 0 && maxAttempts == 0 {
		maxAttempts = 1
	}
	s.Processing.RetryStatistics.TotalRetryAttempts = totalAttempts
	s.Processing.RetryStatistics.MaxRetryAttempts = maxAttempts
	s.Processing.RetryStatistics.PromptsWithRetries = withRetries

	return s
}

// Write persists a summary as indented JSON, leaving non-ASCII text
// unescaped.
func Write(s *models.RunSummary, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating summary directory: %w", err)
		}
	}

	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}
