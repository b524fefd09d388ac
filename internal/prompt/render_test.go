package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fiscalia-labs/casetriage/internal/config"
	"github.com/fiscalia-labs/casetriage/internal/dataset"
)

func TestRender(t *testing.T) {
	record := dataset.Record{"nuc": "ABC-123", "hechos": "robo con violencia"}

	t.Run("bare placeholder gets a json fence", func(t *testing.T) {
		tpl := "Condición: {{CONDITION}}\n\nDatos:\n{{RECORD_JSON}}\n"
		out, err := Render(tpl, "el caso involucra robo", record, nil)
		require.NoError(t, err)
		require.Contains(t, out, "Condición: el caso involucra robo")
		require.Contains(t, out, "```json\n{\n  \"hechos\": \"robo con violencia\",\n  \"nuc\": \"ABC-123\"\n}\n```")
	})

	t.Run("existing fence is upgraded not nested", func(t *testing.T) {
		tpl := "Datos:\n```\n{{RECORD_JSON}}\n```\n"
		out, err := Render(tpl, "c", record, nil)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(out, "```json"))
		require.Equal(t, 2, strings.Count(out, "```"))
		require.NotContains(t, out, "{{RECORD_JSON}}")
	})

	t.Run("output schema placeholder", func(t *testing.T) {
		tpl := "{{RECORD_JSON}}\n\nEsquema:\n{{OUTPUT_SCHEMA}}\n"
		schema := map[string]any{"meets_condition": "true | false"}
		out, err := Render(tpl, "c", record, schema)
		require.NoError(t, err)
		require.Contains(t, out, `"meets_condition": "true | false"`)
	})

	t.Run("accented text survives unescaped", func(t *testing.T) {
		rec := dataset.Record{"hechos": "agresión & daños <graves>"}
		out, err := Render("{{RECORD_JSON}}", "c", rec, nil)
		require.NoError(t, err)
		require.Contains(t, out, "agresión & daños <graves>")
		require.NotContains(t, out, `<`)
	})
}

func TestRenderExtractRoundTrip(t *testing.T) {
	tpl := "Condición: {{CONDITION}}\n\nDatos del caso:\n{{RECORD_JSON}}\n\nResponde únicamente con JSON.\n"
	record := dataset.Record{
		"nuc":    "FGE/2024/00123",
		"hechos": "El denunciante reporta...",
	}

	out, err := Render(tpl, "el caso involucra arma de fuego", record, nil)
	require.NoError(t, err)

	values := ExtractOriginalValues(out)
	require.Equal(t, "FGE/2024/00123", values.NUC)
	require.Equal(t, "el caso involucra arma de fuego", values.Condition)
	require.Equal(t, "El denunciante reporta...", values.Hechos)
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name    string
		caseKey any
		index   int
		want    string
	}{
		{"plain key", "ABC123", 0, "prompt_ABC123.md"},
		{"keeps dashes and underscores", "A-1_b", 0, "prompt_A-1_b.md"},
		{"strips separators", "FGE/2024/001", 0, "prompt_FGE2024001.md"},
		{"numeric key", 42, 0, "prompt_42.md"},
		{"nil key falls back to row", nil, 4, "prompt_row_5.md"},
		{"all-invalid key falls back to row", "///", 0, "prompt_row_1.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SafeFileName(tt.caseKey, tt.index))
		})
	}
}

func TestExtractOriginalValues(t *testing.T) {
	t.Run("candidate order for case key", func(t *testing.T) {
		text := "```json\n{\"folio\": \"F-9\", \"case_id\": \"C-1\"}\n```"
		values := ExtractOriginalValues(text)
		require.Equal(t, "C-1", values.NUC)
	})

	t.Run("no fenced block", func(t *testing.T) {
		values := ExtractOriginalValues("Condición: algo\n\nsin datos")
		require.Equal(t, "algo", values.Condition)
		require.Empty(t, values.NUC)
		require.Empty(t, values.Hechos)
	})

	t.Run("condition stops at Datos label", func(t *testing.T) {
		values := ExtractOriginalValues("Condición: una línea\nDatos del caso: x")
		require.Equal(t, "una línea", values.Condition)
	})

	t.Run("numeric nuc stringified", func(t *testing.T) {
		text := "```json\n{\"nuc\": 12345}\n```"
		values := ExtractOriginalValues(text)
		require.Equal(t, "12345", values.NUC)
	})
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.PromptConfig{
		Condition:      "condición de prueba",
		PromptTemplate: "Condición: {{CONDITION}}\n\n{{RECORD_JSON}}\n",
	}
	records := []dataset.Record{
		{"nuc": "B-2", "hechos": "segundo"},
		{"nuc": "A-1", "hechos": "primero"},
		{"hechos": "sin clave"},
	}

	written, err := WriteAll(records, cfg, dir, "nuc")
	require.NoError(t, err)
	require.Len(t, written, 3)
	require.True(t, sortedStrings(written))

	names := make([]string, 0, len(written))
	for _, p := range written {
		names = append(names, filepath.Base(p))
	}
	require.Contains(t, names, "prompt_A-1.md")
	require.Contains(t, names, "prompt_B-2.md")
	require.Contains(t, names, "prompt_row_3.md")

	data, err := os.ReadFile(filepath.Join(dir, "prompt_A-1.md"))
	require.NoError(t, err)
	require.Contains(t, string(data), "condición de prueba")
	require.Contains(t, string(data), `"nuc": "A-1"`)
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}
