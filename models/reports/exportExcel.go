package reports

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter is one spreadsheet row.
type ExcelExporter interface {
	GetCellValues() []interface{}
}

// Sheet is a named table written by WriteWorkbook.
type Sheet struct {
	Name     string
	Headings []string
	Rows     []ExcelExporter
}

// WriteWorkbook writes every sheet, in order, into one xlsx workbook.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return errors.New("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			// excelize starts with "Sheet1"; rename it instead of leaving it empty
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	for col, h := range sheet.Headings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, h); err != nil {
			return err
		}
	}

	rowNo := 2
	for _, d := range sheet.Rows {
		for col, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return err
			}
		}
		rowNo++
	}
	return nil
}
