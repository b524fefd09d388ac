// Package prompt renders case records into model-ready instruction text
// and recovers the original identifying values from that text later in
// the pipeline.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/dataset"
	"github.com/fiscalia-labs/casetriage/internal/models"
)

// Template placeholders.
const (
	ConditionPlaceholder    = "{{CONDITION}}"
	RecordJSONPlaceholder   = "{{RECORD_JSON}}"
	OutputSchemaPlaceholder = "{{OUTPUT_SCHEMA}}"
)

// Render fills the prompt template with the condition, the serialized
// record, and optionally the output schema. The record JSON always ends
// up inside a ```json fence so it can be recovered verbatim later.
func Render(template, condition string, record dataset.Record, outputSchema map[string]any) (string, error) {
	recordJSON, err := marshalPretty(record)
	if err != nil {
		return "", fmt.Errorf("serializing record: %w", err)
	}

	out := replaceAll(template, ConditionPlaceholder, condition)

	if outputSchema != nil {
		schemaJSON, err := marshalPretty(outputSchema)
		if err != nil {
			return "", fmt.Errorf("serializing output schema: %w", err)
		}
		out = replaceAll(out, OutputSchemaPlaceholder, "```json\n"+schemaJSON+"\n```")
	}

	return ensureJSONFence(out, recordJSON), nil
}

// marshalPretty serializes without HTML escaping so accented legal text
// survives the round trip unchanged.
func marshalPretty(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func replaceAll(s, placeholder, value string) string {
	return regexp.MustCompile(regexp.QuoteMeta(placeholder)).ReplaceAllLiteralString(s, value)
}

// ensureJSONFence substitutes the record placeholder with a ```json
// fenced block. When the template already wraps the placeholder in a
// generic fence, the whole fence is upgraded instead of nesting fences.
func ensureJSONFence(template, recordJSON string) string {
	fenced := "```json\n" + recordJSON + "\n```"

	fencePattern := regexp.MustCompile("(?s)```[^`]*?" + regexp.QuoteMeta(RecordJSONPlaceholder) + "[^`]*?```")
	if loc := fencePattern.FindStringIndex(template); loc != nil {
		return template[:loc[0]] + fenced + template[loc[1]:]
	}

	return replaceAll(template, RecordJSONPlaceholder, fenced)
}

// SafeFileName builds the prompt file name for a case key, falling back
// to the 1-based row position when the key is unusable.
func SafeFileName(caseKey any, index int) string {
	base := ""
	if caseKey != nil {
		base = fmt.Sprintf("%v", caseKey)
	}

	var safe []rune
	for _, ch := range base {
		if ch == '-' || ch == '_' ||
			(ch >= '0' && ch <= '9') ||
			(ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') {
			safe = append(safe, ch)
		}
	}
	name := string(safe)
	if name == "" {
		name = fmt.Sprintf("row_%d", index+1)
	}
	return "prompt_" + name + models.PromptExt
}

// WriteAll renders one prompt file per record into outputDir and returns
// the written file paths in a stable order.
func WriteAll(records []dataset.Record, cfg *config.PromptConfig, outputDir, caseKeyColumn string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating prompts directory: %w", err)
	}

	written := make([]string, 0, len(records))
	for i, rec := range records {
		var caseKey any
		if caseKeyColumn != "" {
			caseKey = rec[caseKeyColumn]
		}

		content, err := Render(cfg.PromptTemplate, cfg.Condition, rec, cfg.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("rendering prompt for row %d: %w", i+1, err)
		}

		path := filepath.Join(outputDir, SafeFileName(caseKey, i))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("writing prompt %s: %w", path, err)
		}
		written = append(written, path)
	}

	sort.Strings(written)
	return written, nil
}
