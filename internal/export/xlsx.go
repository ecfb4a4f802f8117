package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bda-pipeline/internal/normalize"
)

const (
	sheetName     = "Results"
	maxCellLength = 32767
)

// XLSXWriter writes a single sheet with a header row.
type XLSXWriter struct{}

func (XLSXWriter) Format() Format { return FormatXLSX }
func (XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXWriter) Write(w io.Writer, t *normalize.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	cols := columns(t)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}

	for r, row := range rows(t) {
		cells := make([]any, len(cols))
		for i, c := range cols {
			if s, ok := CellString(row[c]); ok {
				cells[i] = truncate(s, maxCellLength)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
