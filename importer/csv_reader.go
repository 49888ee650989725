package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVReader reads punch files with a header row. Comma and semicolon
// delimiters are both accepted; the header line decides.
type CSVReader struct{}

func (r *CSVReader) Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	firstLine, err := buffered.Peek(peekSize(buffered))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = sniffDelimiter(string(firstLine))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make([]string, len(headers))
	for i, header := range headers {
		columns[i] = normalizeHeader(strings.TrimPrefix(header, "\ufeff"))
	}

	records := make([]Record, 0, 128)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}
		records = append(records, Record{RowNumber: line, Values: rowValues(columns, row)})
	}

	return records, nil
}

func peekSize(reader *bufio.Reader) int {
	return min(reader.Size(), 1024)
}

func sniffDelimiter(sample string) rune {
	if end := strings.IndexByte(sample, '\n'); end >= 0 {
		sample = sample[:end]
	}
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		return ';'
	}
	return ','
}

func rowValues(columns, row []string) map[string]string {
	values := make(map[string]string, len(columns))
	for i, column := range columns {
		if i < len(row) {
			values[column] = row[i]
		} else {
			values[column] = ""
		}
	}
	return values
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
