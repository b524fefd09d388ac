package dataset

import (
	"fmt"
	"reflect"
)

// ErrNoCaseColumn reports that the workbook has no column matching the
// case-identifier key, so deduplication cannot run.
type ErrNoCaseColumn struct {
	Key string
}

func (e *ErrNoCaseColumn) Error() string {
	return fmt.Sprintf("case identifier column not found (normalized key: %s)", e.Key)
}

// DedupeByCase merges records sharing the same case identifier into one
// record per case.
//
// Merge rules per column: missing values are ignored; a missing slot is
// filled by the first non-missing value; equal values collapse to the
// scalar; conflicting values accumulate into an order-preserving list
// with duplicates removed.
func DedupeByCase(records []Record, colsMap map[string]string, caseKey string) ([]Record, error) {
	norm := NormalizeKey(caseKey)
	caseCol, ok := colsMap[norm]
	if !ok {
		return nil, &ErrNoCaseColumn{Key: norm}
	}

	grouped := make(map[any]Record)
	order := make([]any, 0, len(records))

	for _, rec := range records {
		key := rec[caseCol]

		agg, seen := grouped[key]
		if !seen {
			copied := make(Record, len(rec))
			for k, v := range rec {
				copied[k] = v
			}
			grouped[key] = copied
			order = append(order, key)
			continue
		}

		for col, newVal := range rec {
			if isMissing(newVal) {
				continue
			}
			oldVal := agg[col]
			if isMissing(oldVal) {
				agg[col] = newVal
				continue
			}
			if valuesEqual(oldVal, newVal) {
				continue
			}
			if list, isList := oldVal.([]any); isList {
				agg[col] = appendUnique(list, newVal)
				continue
			}
			agg[col] = []any{oldVal, newVal}
		}
	}

	out := make([]Record, 0, len(order))
	for _, key := range order {
		out = append(out, grouped[key])
	}
	return out, nil
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if !isMissing(item) {
				return false
			}
		}
		return true
	}
	return false
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func appendUnique(list []any, v any) []any {
	for _, item := range list {
		if valuesEqual(item, v) {
			return list
		}
	}
	return append(list, v)
}
