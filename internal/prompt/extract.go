package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fiscalia-labs/casetriage/internal/parse"
)

// OriginalValues holds the identifying fields recovered from a rendered
// prompt. Empty string means the value could not be recovered.
type OriginalValues struct {
	NUC       string
	Condition string
	Hechos    string
}

// Candidate record field names, checked in order; the first present
// non-null value wins. The lists cover the column spellings seen in
// source workbooks.
var (
	nucCandidates    = []string{"nuc", "NUC", "case_id", "id", "folio", "numero_unico_caso"}
	hechosCandidates = []string{"hechos", "Hechos", "HECHOS", "narrativa", "narracion", "crime_narration"}
)

// conditionPattern anchors on the literal "Condición:" label and runs to
// the next blank line or a following labeled section.
var conditionPattern = regexp.MustCompile(`(?s)Condición:\s*(.+?)(?:\n\n|\nDatos|\nResponde)`)

// ExtractOriginalValues recovers the case key, condition text and
// narrative from a rendered prompt. The record fields come from the
// fenced JSON block; the condition comes from the instruction text
// itself.
func ExtractOriginalValues(promptText string) OriginalValues {
	var values OriginalValues

	if m := conditionPattern.FindStringSubmatch(promptText); m != nil {
		values.Condition = strings.TrimSpace(m[1])
	}

	block, ok := parse.FencedBlock(promptText, "json")
	if !ok {
		return values
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(block), &record); err != nil {
		return values
	}

	values.NUC = firstPresent(record, nucCandidates)
	values.Hechos = firstPresent(record, hechosCandidates)
	return values
}

func firstPresent(record map[string]any, candidates []string) string {
	for _, field := range candidates {
		if v, ok := record[field]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}
