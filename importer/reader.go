package importer

import "fmt"

type Reader interface {
	Read(path string) ([]Record, error)
}

func SupportedFormats() []string {
	return []string{"json", "csv", "excel"}
}

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeHeader(format) {
	case "json":
		return &JSONReader{}, nil
	case "csv":
		return &CSVReader{}, nil
	case "excel", "xlsx", "xlsm", "xls":
		return &ExcelReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}
