package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// JSONReader reads a JSON array of {start, end} objects.
type JSONReader struct{}

func (r *JSONReader) Read(path string) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json file %s: %w", path, err)
	}
	return decodeJSONRecords(content)
}

func decodeJSONRecords(content []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(content))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.New("json input must be an array of {start, end} objects")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("decode json input: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("json input contains no entries")
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		values := map[string]string{}
		var object map[string]any
		if err := json.Unmarshal(item, &object); err == nil {
			for key, value := range object {
				values[normalizeHeader(key)] = stringValue(value)
			}
		}
		records = append(records, Record{RowNumber: i + 1, Values: values})
	}
	return records, nil
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
