package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/doccompare/internal/models"
)

const (
	summarySheet  = "Summary"
	warningsSheet = "Warnings"
)

// XLSX renders a workbook with a summary sheet, one sheet per pair listing
// every line with its operation, and a warnings sheet when there are any.
func XLSX(r *models.ComparisonReport) ([]byte, error) {
	data, err := buildWorkbook(r)
	if err != nil {
		return nil, &RenderError{Format: "xlsx", Err: err}
	}
	return data, nil
}

func buildWorkbook(r *models.ComparisonReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	rows := [][]any{{"Pair", "File A", "File B", "Added", "Removed", "Result"}}
	for i, p := range r.Pairs {
		added, removed, result := 0, 0, "No differences"
		if p.Diff != nil {
			added, removed = p.Diff.Added, p.Diff.Removed
		}
		if !p.Diff.Equal() {
			result = "Differences"
		}
		rows = append(rows, []any{i + 1, p.FileA, p.FileB, added, removed, result})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}

	for i, p := range r.Pairs {
		sheet := fmt.Sprintf("Pair %d", i+1)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		rows := [][]any{{"Line", "Op", "Text"}}
		if p.Diff != nil {
			for j, l := range p.Diff.Lines {
				rows = append(rows, []any{j + 1, l.Op.String(), l.Text})
			}
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, err
		}
	}

	if len(r.Warnings) > 0 {
		if _, err := f.NewSheet(warningsSheet); err != nil {
			return nil, err
		}
		rows := [][]any{{"File", "Page", "Message"}}
		for _, w := range r.Warnings {
			rows = append(rows, []any{w.Path, w.Page, w.Message})
		}
		if err := writeRows(f, warningsSheet, rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
