package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePromptConfigBytes(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{
			"model": "llama3",
			"use_json_format": false,
			"condition": "c",
			"prompt_template": "t",
			"output_schema": {"meets_condition": "bool"}
		}`))
		require.Empty(t, errs)
	})

	t.Run("minimal document", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{"condition": "c", "prompt_template": "t"}`))
		require.Empty(t, errs)
	})

	t.Run("missing required fields", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{}`))
		require.NotEmpty(t, errs)
		joined := strings.Join(errs, "\n")
		require.Contains(t, joined, "prompt_template")
		require.Contains(t, joined, "condition")
	})

	t.Run("wrong types", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{
			"condition": "c",
			"prompt_template": "t",
			"use_json_format": "yes"
		}`))
		require.NotEmpty(t, errs)
		joined := strings.Join(errs, "\n")
		require.Contains(t, joined, "use_json_format")
	})

	t.Run("empty strings rejected", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{"condition": "", "prompt_template": "t"}`))
		require.NotEmpty(t, errs)
	})

	t.Run("unknown keys allowed", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{
			"condition": "c",
			"prompt_template": "t",
			"notes": "anything"
		}`))
		require.Empty(t, errs)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		errs := ValidatePromptConfigBytes([]byte(`{`))
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "JSON parse error")
	})
}
