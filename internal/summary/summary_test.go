package summary

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fiscalia-labs/casetriage/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestCompute(t *testing.T) {
	t.Run("mixed outcomes", func(t *testing.T) {
		results := []*models.Result{
			{Success: true, PromptFile: "prompt_a.md", DurationSeconds: floatPtr(2.0), RetryAttempts: 1},
			{Success: true, PromptFile: "prompt_b.md", DurationSeconds: floatPtr(4.0), RetryAttempts: 3},
			{Success: false, PromptFile: "prompt_c.md", Error: strPtr("model down"), RetryAttempts: 3},
			{Success: false, PromptFile: "prompt_d.md", Error: strPtr("bad json")},
		}

		s := Compute(results)
		p := s.Processing

		require.Equal(t, 4, p.TotalPrompts)
		require.Equal(t, 2, p.Successful)
		require.Equal(t, 2, p.Failed)
		require.Equal(t, p.TotalPrompts, p.Successful+p.Failed)
		require.Equal(t, 0.5, p.SuccessRate)

		// Durations are summed over successes only.
		require.Equal(t, 6.0, p.TotalDurationSeconds)
		require.Equal(t, 3.0, p.AverageDurationSeconds)

		// Unset attempt counts are treated as one attempt.
		require.Equal(t, 8, p.RetryStatistics.TotalRetryAttempts)
		require.Equal(t, 2.0, p.RetryStatistics.AverageRetryAttempts)
		require.Equal(t, 3, p.RetryStatistics.MaxRetryAttempts)
		require.Equal(t, 2, p.RetryStatistics.PromptsWithRetries)
		require.Equal(t, 0.5, p.RetryStatistics.RetryRate)

		require.Len(t, s.FailedPrompts, 2)
		require.Equal(t, "prompt_c.md", s.FailedPrompts[0].File)
		require.Equal(t, "model down", *s.FailedPrompts[0].Error)
		require.Equal(t, 1, s.FailedPrompts[1].RetryAttempts)
		require.Len(t, s.DetailedResults, 4)
		require.NotEmpty(t, p.Timestamp)
	})

	t.Run("empty set", func(t *testing.T) {
		s := Compute(nil)
		require.Equal(t, 0, s.Processing.TotalPrompts)
		require.Equal(t, 0.0, s.Processing.SuccessRate)
		require.Equal(t, 0, s.Processing.RetryStatistics.MaxRetryAttempts)
		require.NotNil(t, s.FailedPrompts)
	})
}

func writeResult(t *testing.T, dir, name string, res *models.Result) {
	t.Helper()
	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestLoadDir(t *testing.T) {
	t.Run("loads and sorts", func(t *testing.T) {
		dir := t.TempDir()
		writeResult(t, dir, "prompt_b_response.json", &models.Result{Success: true, PromptFile: "prompt_b.md"})
		writeResult(t, dir, "prompt_a_response.json", &models.Result{Success: false, PromptFile: "prompt_a.md"})
		// Non-result files are ignored.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

		results, err := LoadDir(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, results, 2)
		require.Equal(t, "prompt_a.md", results[0].PromptFile)
		require.Equal(t, "prompt_b.md", results[1].PromptFile)
	})

	t.Run("recovers prompt file from name", func(t *testing.T) {
		dir := t.TempDir()
		writeResult(t, dir, "prompt_x_response.json", &models.Result{Success: true})

		results, err := LoadDir(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "prompt_x.md", results[0].PromptFile)
	})

	t.Run("missing directory yields empty", func(t *testing.T) {
		results, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		require.Empty(t, results)
	})

	t.Run("corrupt file errors", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt_bad_response.json"), []byte("{"), 0644))

		_, err := LoadDir(context.Background(), dir)
		require.Error(t, err)
	})
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary", "run.json")

	s := Compute([]*models.Result{
		{Success: true, PromptFile: "prompt_a.md", DurationSeconds: floatPtr(1.0)},
	})
	s.Processing.RunID = "run-1"
	require.NoError(t, Write(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded models.RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Equal(t, "run-1", loaded.Processing.RunID)
	require.Equal(t, 1, loaded.Processing.TotalPrompts)
}
