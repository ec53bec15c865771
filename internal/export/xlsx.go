package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"SP500Collector/internal/model"
)

// ErrEmptyBundle is returned when a fundamentals bundle has no non-empty table.
var ErrEmptyBundle = errors.New("no fundamentals data")

// WriteFundamentals writes one sheet per non-empty table and returns the sheet
// names written. An existing file at path is replaced only once the new workbook is complete.
func WriteFundamentals(path string, fund *model.Fundamentals) ([]string, error) {
	sheets := fund.Sheets()
	if len(sheets) == 0 {
		return nil, ErrEmptyBundle
	}

	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, 0, len(sheets))
	for i, t := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return nil, fmt.Errorf("rename sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", t.Name, err)
		}
		if err := writeTable(f, t); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", t.Name, err)
		}
		names = append(names, t.Name)
	}
	f.SetActiveSheet(0)

	err := writeFile(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	return names, nil
}

func writeTable(f *excelize.File, t *model.Table) error {
	header := make([]any, 0, len(t.Columns)+1)
	header = append(header, t.Index)
	for _, c := range t.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}
	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, 0, len(r.Cells)+1)
		row = append(row, r.Label)
		row = append(row, r.Cells...)
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
