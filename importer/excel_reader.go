package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelReader reads punches from a sheet named "Punches" when present,
// otherwise from the first sheet.
type ExcelReader struct{}

const punchSheetName = "Punches"

func (r *ExcelReader) Read(path string) ([]Record, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	sheetName := punchSheet(file.GetSheetList())
	if sheetName == "" {
		return nil, fmt.Errorf("excel file has no sheets: %s", path)
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	columns := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		columns[i] = normalizeHeader(header)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, Record{RowNumber: i + 2, Values: rowValues(columns, row)})
	}

	return records, nil
}

func punchSheet(sheets []string) string {
	for _, sheet := range sheets {
		if strings.EqualFold(strings.TrimSpace(sheet), punchSheetName) {
			return sheet
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}
