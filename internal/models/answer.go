package models

// Answer is the model's decoded JSON judgment about one case. Fields the
// model omits are simply absent from the map; absence is a first-class
// value and is interpreted at the quality-gate boundary, not here.
type Answer map[string]any

// Answer field names. The echoed fields are injected by the batch runner
// after a successful dispatch so the report stage can trace every row
// back to its source record.
const (
	FieldMeetsCondition = "meets_condition"
	FieldConfidence     = "confidence"
	FieldRationale      = "rationale_short"
	FieldNUC            = "nuc"
	FieldCondition      = "condition"
	FieldHechos         = "hechos"
)

// Verdict returns the meets_condition value, or nil when the model
// omitted it or set it to null.
func (a Answer) Verdict() any {
	if a == nil {
		return nil
	}
	return a[FieldMeetsCondition]
}

// Confidence returns the confidence score when present and numeric.
func (a Answer) Confidence() (float64, bool) {
	if a == nil {
		return 0, false
	}
	switch v := a[FieldConfidence].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Set stores a value under key. Used exactly once per result, by the
// batch runner, to inject the echoed identifying fields.
func (a Answer) Set(key string, value any) {
	a[key] = value
}
