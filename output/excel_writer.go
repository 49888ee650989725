package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter writes one sheet with a bold, frozen header row.
type ExcelWriter struct {
	SheetName string
}

func (w *ExcelWriter) Write(path string, table Table) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if w.SheetName != "" && w.SheetName != sheet {
		if err := file.SetSheetName(sheet, w.SheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = w.SheetName
	}

	if err := writeExcelRow(file, sheet, 1, table.Headers); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeExcelRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(table.Headers) > 0 {
		if err := styleHeader(file, sheet, len(table.Headers)); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}

func writeExcelRow(file *excelize.File, sheet string, row int, values []string) error {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set excel value %s: %w", cell, err)
		}
	}
	return nil
}

func styleHeader(file *excelize.File, sheet string, columns int) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(columns, 1)
	if err := file.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}
