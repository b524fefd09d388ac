// Package dataset loads case records from Excel workbooks and merges
// duplicate rows sharing a case identifier.
package dataset

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Record is one workbook row, mapping the original column name to its
// cleaned value. Values are trimmed strings; empty cells are nil.
// After deduplication a value may also be a []any of merged entries.
type Record map[string]any

// NormalizeKey lowercases a column name and strips everything that is
// not a letter or digit, so "Número Único" and "numero_unico" can both
// resolve the same column.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(s) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// ReadWorkbook reads the first sheet of an xlsx file. It returns the
// rows as records plus a mapping from normalized column key to the
// original column name for lookups.
func ReadWorkbook(path string) ([]Record, map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("workbook not found: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("workbook %s is empty (no header row)", path)
	}

	headers := rows[0]
	colsMap := make(map[string]string, len(headers))
	for _, h := range headers {
		colsMap[NormalizeKey(h)] = h
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(headers))
		for j, col := range headers {
			var val any
			if j < len(row) {
				if s := strings.TrimSpace(row[j]); s != "" {
					val = s
				}
			}
			rec[col] = val
		}
		records = append(records, rec)
	}

	return records, colsMap, nil
}
