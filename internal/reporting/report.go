// Package reporting flattens persisted results into a reviewer-facing
// XLSX workbook, one row per case.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xuri/excelize/v2"

	"github.com/fiscalia-labs/casetriage/internal/models"
	"github.com/fiscalia-labs/casetriage/internal/prompt"
	"github.com/fiscalia-labs/casetriage/internal/summary"
)

// CaseRow is one flattened report row. Successful results fill it from
// the model answer; failed results carry only what can be recovered from
// the prompt side.
type CaseRow struct {
	NUC            string `mapstructure:"nuc"`
	Condition      string `mapstructure:"condition"`
	MeetsCondition any    `mapstructure:"meets_condition"`
	Confidence     any    `mapstructure:"confidence"`
	RationaleShort string `mapstructure:"rationale_short"`
	Hechos         string `mapstructure:"hechos"`

	Success bool `mapstructure:"-"`
}

// Writer produces the XLSX report from a results directory. The prompts
// directory is consulted only for failed results, to recover the case
// key and condition the model never answered for.
type Writer struct {
	responsesDir string
	promptsDir   string
	logger       *slog.Logger
}

func NewWriter(responsesDir, promptsDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{responsesDir: responsesDir, promptsDir: promptsDir, logger: logger}
}

// WriteReport loads every persisted result and writes the workbook to
// outPath, creating parent directories as needed.
func (w *Writer) WriteReport(ctx context.Context, outPath string) error {
	start := time.Now()

	results, err := summary.LoadDir(ctx, w.responsesDir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results found in %s", w.responsesDir)
	}

	rows := make([]CaseRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, w.rowFor(res))
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := writeWorkbook(rows, outPath); err != nil {
		return err
	}

	w.logger.Info("report.xlsx.ok",
		"path", outPath,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// rowFor builds one report row. Failures still get a row so reviewers
// see every case, flagged by the success column.
func (w *Writer) rowFor(res *models.Result) CaseRow {
	row := CaseRow{Success: res.Success}

	if res.Success && res.Response != nil {
		if err := decodeAnswer(res.Response, &row); err != nil {
			w.logger.Warn("malformed answer in result", "prompt_file", res.PromptFile, "error", err)
		}
	}

	if row.NUC == "" {
		row.NUC = caseKeyFromFile(res.PromptFile)
	}
	if row.Condition == "" && w.promptsDir != "" && res.PromptFile != "" {
		if data, err := os.ReadFile(filepath.Join(w.promptsDir, res.PromptFile)); err == nil {
			row.Condition = prompt.ExtractOriginalValues(string(data)).Condition
		}
	}
	return row
}

func decodeAnswer(answer models.Answer, row *CaseRow) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           row,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(answer))
}

// caseKeyFromFile recovers the case key from a prompt file name of the
// form prompt_<key>.md.
func caseKeyFromFile(promptFile string) string {
	stem := models.PromptStem(promptFile)
	if rest, ok := strings.CutPrefix(stem, "prompt_"); ok {
		return rest
	}
	return stem
}

func writeWorkbook(rows []CaseRow, outPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Resultados"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"nuc",
		"condition",
		"meets_condition",
		"confidence",
		"rationale_short",
		"hechos",
		"ollama_success",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		rowNum := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.NUC)
		write(2, r.Condition)
		if r.MeetsCondition != nil {
			write(3, fmt.Sprintf("%v", r.MeetsCondition))
		}
		// An answer without confidence leaves the cell empty; writing
		// zero would read as a verdict.
		if r.Confidence != nil {
			write(4, r.Confidence)
		}
		write(5, r.RationaleShort)
		write(6, r.Hechos)
		success := 0
		if r.Success {
			success = 1
		}
		write(7, success)
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // case key
	_ = f.SetColWidth(sheet, "B", "B", 40) // condition
	_ = f.SetColWidth(sheet, "C", "D", 16)
	_ = f.SetColWidth(sheet, "E", "E", 48) // rationale
	_ = f.SetColWidth(sheet, "F", "F", 60) // narrative
	_ = f.SetColWidth(sheet, "G", "G", 14)

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
