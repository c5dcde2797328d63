package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sitepulse/sitepulse/internal/audit"
)

// sheetName is the single worksheet holding the results in xlsx output.
const sheetName = "Results"

// Write persists rows to path, picking the format from the extension.
// The header is always written, even for an empty batch.
func Write(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeXLSX(path, rows)
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(audit.Columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return f.Close()
}

func writeXLSX(path string, rows [][]string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	// The default sheet is named Sheet1; rename it rather than juggling
	// a second sheet and a delete.
	if err := wb.SetSheetName(wb.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	if err := setRow(wb, 1, audit.Columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(wb, i+2, row); err != nil {
			return err
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("export: save xlsx: %w", err)
	}
	return nil
}

func setRow(wb *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	// SetSheetRow wants a slice of interface values.
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := wb.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("export: write row %d: %w", n, err)
	}
	return nil
}
