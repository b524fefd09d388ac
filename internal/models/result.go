package models

import "time"

// TimestampLayout is the wall-clock format recorded on results and
// summaries.
const TimestampLayout = "2006-01-02 15:04:05"

// Now returns the current time formatted for result envelopes.
func Now() string {
	return time.Now().Format(TimestampLayout)
}

// Prompt is one case record rendered into model-ready instruction text.
// Immutable once created; the dispatch core consumes it read-only.
type Prompt struct {
	// ID is derived from the prompt file stem (case key or positional
	// fallback).
	ID string
	// Text is the full prompt content, including the fenced JSON block
	// with the original record.
	Text string
	// File is the base name of the prompt file (e.g. prompt_ABC123.md).
	File string
}

// ResponseFile returns the name of the result file paired with this
// prompt. One prompt maps to exactly one result file; that layout is the
// concurrency-safety mechanism for the results directory.
func (p Prompt) ResponseFile() string {
	return responseFileName(p.File)
}

// Result is the outcome envelope of one finalized (possibly
// multi-attempt) prompt submission. Exactly one of Response or Error is
// meaningful for downstream consumption. Created once, persisted
// immediately, never mutated afterward within a run.
type Result struct {
	Success         bool     `json:"success"`
	Model           string   `json:"model"`
	Response        Answer   `json:"response"`
	DurationSeconds *float64 `json:"duration_seconds"`
	Timestamp       string   `json:"timestamp"`
	Error           *string  `json:"error"`
	RawContent      *string  `json:"raw_content"`
	UsedJSONFormat  bool     `json:"used_json_format"`

	// Set by the batch runner before persistence.
	PromptFile    string `json:"prompt_file,omitempty"`
	PromptNumber  int    `json:"prompt_number,omitempty"`
	RetryAttempts int    `json:"retry_attempts,omitempty"`
}

// Attempts returns the retry attempt count, treating results persisted
// without the field as a single attempt.
func (r *Result) Attempts() int {
	if r.RetryAttempts < 1 {
		return 1
	}
	return r.RetryAttempts
}

// RunSummary is the batch-level aggregate: statistics, condensed
// failures, and the full result listing. Created once at the end of a
// run, written once, never mutated.
type RunSummary struct {
	Processing      ProcessingSummary `json:"processing_summary"`
	FailedPrompts   []FailedPrompt    `json:"failed_prompts"`
	DetailedResults []*Result         `json:"detailed_results"`
}

// ProcessingSummary holds the run-level counters and durations.
type ProcessingSummary struct {
	RunID                  string          `json:"run_id"`
	TotalPrompts           int             `json:"total_prompts"`
	Successful             int             `json:"successful"`
	Failed                 int             `json:"failed"`
	SuccessRate            float64         `json:"success_rate"`
	TotalDurationSeconds   float64         `json:"total_duration_seconds"`
	AverageDurationSeconds float64         `json:"average_duration_seconds"`
	Timestamp              string          `json:"timestamp"`
	RetryStatistics        RetryStatistics `json:"retry_statistics"`
}

// RetryStatistics aggregates attempt counts across the batch.
type RetryStatistics struct {
	TotalRetryAttempts   int     `json:"total_retry_attempts"`
	AverageRetryAttempts float64 `json:"average_retry_attempts"`
	MaxRetryAttempts     int     `json:"max_retry_attempts"`
	PromptsWithRetries   int     `json:"prompts_with_retries"`
	RetryRate            float64 `json:"retry_rate"`
}

// FailedPrompt is the condensed failure entry embedded in the summary.
type FailedPrompt struct {
	File          string  `json:"file"`
	Error         *string `json:"error"`
	RetryAttempts int     `json:"retry_attempts"`
}
