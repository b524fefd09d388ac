// Package config loads the two configuration surfaces of the pipeline:
// runtime settings (casetriage.yaml) and the prompt configuration
// (prompt_config.json). Configuration problems are fatal at batch
// start; nothing in this package is consulted mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the runtime settings file looked up in the
// working directory.
const DefaultSettingsFile = "casetriage.yaml"

// Settings is the runtime configuration for a pipeline run. Every field
// has a default mirroring the classic workspace layout, so a missing
// settings file is not an error.
type Settings struct {
	OllamaHost     string  `yaml:"ollama_host"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	DelaySeconds   float64 `yaml:"delay_seconds"`
	MaxAttempts    int     `yaml:"max_attempts"`
	BackoffSeconds float64 `yaml:"backoff_seconds"`
	Paths          Paths   `yaml:"paths"`
}

// Paths locates the pipeline's inputs and outputs.
type Paths struct {
	Workbook     string `yaml:"workbook"`
	PromptConfig string `yaml:"prompt_config"`
	ReferenceDir string `yaml:"reference_dir"`
	PromptsDir   string `yaml:"prompts_dir"`
	ResponsesDir string `yaml:"responses_dir"`
	SummaryFile  string `yaml:"summary_file"`
	ReportFile   string `yaml:"report_file"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() *Settings {
	return &Settings{
		OllamaHost:     "http://127.0.0.1:11434",
		TimeoutSeconds: 120,
		DelaySeconds:   1.0,
		MaxAttempts:    3,
		BackoffSeconds: 2.0,
		Paths: Paths{
			Workbook:     "prompt/data/sample.xlsx",
			PromptConfig: "prompt/prompt_config.json",
			ReferenceDir: "prompt/reference",
			PromptsDir:   "output/prompts",
			ResponsesDir: "output/responses",
			SummaryFile:  "output/ollama_summary.json",
			ReportFile:   "output/summary/results.xlsx",
		},
	}
}

// LoadSettings reads the settings file at path, falling back to defaults
// when the file does not exist. Unknown values are rejected by
// validation, not silently clamped.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if s.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", s.TimeoutSeconds)
	}
	if s.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds must not be negative, got %v", s.DelaySeconds)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BackoffSeconds < 0 {
		return fmt.Errorf("backoff_seconds must not be negative, got %v", s.BackoffSeconds)
	}
	return nil
}

// Timeout returns the per-request timeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Delay returns the inter-request delay as a duration.
func (s *Settings) Delay() time.Duration {
	return time.Duration(s.DelaySeconds * float64(time.Second))
}

// Backoff returns the retry backoff as a duration.
func (s *Settings) Backoff() time.Duration {
	return time.Duration(s.BackoffSeconds * float64(time.Second))
}

// Save writes the settings to path as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}
