package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fiscalia-labs/casetriage/internal/validation"
)

// DefaultModel is used when the prompt config does not name one.
const DefaultModel = "gpt-oss:latest"

// PromptConfig is the prompt_config.json surface: the template, the
// screening condition, the model, and the optional output schema echoed
// into prompts.
type PromptConfig struct {
	Model          string         `json:"model"`
	UseJSONFormat  bool           `json:"use_json_format"`
	Condition      string         `json:"condition"`
	PromptTemplate string         `json:"prompt_template"`
	OutputSchema   map[string]any `json:"output_schema,omitempty"`
}

// LoadPromptConfig reads and validates prompt_config.json. Schema
// violations are reported together rather than one at a time.
func LoadPromptConfig(path string) (*PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt config %s: %w", path, err)
	}

	if errs := validation.ValidatePromptConfigBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid prompt config %s:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var cfg PromptConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing prompt config %s: %w", path, err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &cfg, nil
}

// Save writes the prompt config to path, keeping non-ASCII text
// unescaped.
func (c *PromptConfig) Save(path string) error {
	data, err := marshalJSON(c)
	if err != nil {
		return fmt.Errorf("encoding prompt config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing prompt config %s: %w", path, err)
	}
	return nil
}

// UpdateFromReference folds the template and condition reference files
// into an existing prompt config, preserving every other key the file
// already carries.
func UpdateFromReference(configPath, templatePath, conditionPath string) error {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", templatePath, err)
	}
	condition, err := os.ReadFile(conditionPath)
	if err != nil {
		return fmt.Errorf("reading condition %s: %w", conditionPath, err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading prompt config %s: %w", configPath, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing prompt config %s: %w", configPath, err)
	}

	raw["prompt_template"] = strings.TrimSpace(string(template))
	raw["condition"] = strings.TrimSpace(string(condition))

	out, err := marshalJSON(raw)
	if err != nil {
		return fmt.Errorf("encoding prompt config: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0644); err != nil {
		return fmt.Errorf("writing prompt config %s: %w", configPath, err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
