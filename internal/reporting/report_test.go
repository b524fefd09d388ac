package reporting

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fiscalia-labs/casetriage/internal/models"
)

func strPtr(s string) *string { return &s }

func writeResult(t *testing.T, dir, name string, res *models.Result) {
	t.Helper()
	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestWriteReport(t *testing.T) {
	responsesDir := t.TempDir()
	promptsDir := t.TempDir()
	outPath := filepath.Join(t.TempDir(), "summary", "results.xlsx")

	writeResult(t, responsesDir, "prompt_A1_response.json", &models.Result{
		Success:    true,
		PromptFile: "prompt_A1.md",
		Response: models.Answer{
			"nuc":             "A1",
			"condition":       "el caso involucra robo",
			"meets_condition": "true",
			"confidence":      0.9,
			"rationale_short": "se menciona robo",
			"hechos":          "narración",
		},
	})
	writeResult(t, responsesDir, "prompt_B2_response.json", &models.Result{
		Success:    false,
		PromptFile: "prompt_B2.md",
		Error:      strPtr("model down"),
	})
	writeResult(t, responsesDir, "prompt_C3_response.json", &models.Result{
		Success:    true,
		PromptFile: "prompt_C3.md",
		Response: models.Answer{
			"nuc":             "C3",
			"condition":       "el caso involucra robo",
			"meets_condition": "false",
			"rationale_short": "sin indicios",
			"hechos":          "otra narración",
		},
	})

	// The failed case's condition is recovered from its prompt file.
	promptContent := "Condición: el caso involucra robo\n\nDatos del caso:\n```json\n{\"nuc\": \"B2\"}\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(promptsDir, "prompt_B2.md"), []byte(promptContent), 0644))

	w := NewWriter(responsesDir, promptsDir, nil)
	require.NoError(t, w.WriteReport(context.Background(), outPath))

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Resultados")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.Equal(t, []string{
		"nuc", "condition", "meets_condition", "confidence",
		"rationale_short", "hechos", "ollama_success",
	}, rows[0])

	// Successful case, fully populated from the answer.
	require.Equal(t, "A1", rows[1][0])
	require.Equal(t, "el caso involucra robo", rows[1][1])
	require.Equal(t, "true", rows[1][2])
	require.Equal(t, "0.9", rows[1][3])
	require.Equal(t, "1", rows[1][6])

	// Failed case: key from the file name, condition from the prompt.
	require.Equal(t, "B2", rows[2][0])
	require.Equal(t, "el caso involucra robo", rows[2][1])
	require.Equal(t, "0", rows[2][len(rows[2])-1])

	// An accepted answer without a confidence field leaves the cell
	// empty instead of showing zero.
	require.Equal(t, "C3", rows[3][0])
	require.Equal(t, "false", rows[3][2])
	require.Empty(t, rows[3][3])
	require.Equal(t, "sin indicios", rows[3][4])
	require.Equal(t, "1", rows[3][6])
}

func TestWriteReport_EmptyDir(t *testing.T) {
	w := NewWriter(t.TempDir(), "", nil)
	err := w.WriteReport(context.Background(), filepath.Join(t.TempDir(), "out.xlsx"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no results")
}

func TestRowFor_MalformedAnswer(t *testing.T) {
	w := NewWriter("", "", nil)
	row := w.rowFor(&models.Result{
		Success:    true,
		PromptFile: "prompt_C3.md",
		Response:   models.Answer{"nuc": map[string]any{"oops": true}},
	})

	// Decode problems degrade to a sparse row instead of failing the report.
	require.True(t, row.Success)
	require.Equal(t, "C3", row.NUC)
	require.Nil(t, row.Confidence)
}

func TestCaseKeyFromFile(t *testing.T) {
	require.Equal(t, "A1", caseKeyFromFile("prompt_A1.md"))
	require.Equal(t, "row_7", caseKeyFromFile("prompt_row_7.md"))
	require.Equal(t, "other", caseKeyFromFile("other.md"))
	require.Empty(t, caseKeyFromFile(""))
}
