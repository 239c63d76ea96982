package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Column pairs the record key of a metric with the human readable
// header written to the output file. Column files hold one
// "key:label" entry per line; a line without a label reuses the key.
type Column struct {
	Key   string
	Label string
}

func parseColumns(text string) []Column {
	var columns []Column
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, label, found := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !found || strings.TrimSpace(label) == "" {
			label = key
		}
		columns = append(columns, Column{
			Key:   key,
			Label: strings.TrimSpace(label),
		})
	}
	return columns
}

func ReadColumns(path string) ([]Column, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	columns := parseColumns(string(contents))
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns defined in %s", path)
	}
	return columns, nil
}

func Keys(columns []Column) []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// Reset removes a previous output file so a fresh run starts from an
// empty file. A missing file is not an error.
func Reset(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func WriteHeader(path string, columns []Column) error {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	return appendRow(path, labels)
}

// AppendRow writes one record in column order. Missing keys render as
// empty cells.
func AppendRow(path string, record map[string]any, order []string) error {
	row := make([]string, len(order))
	for i, key := range order {
		value, ok := record[key]
		if !ok || value == nil {
			continue
		}
		row[i] = formatCell(value)
	}
	return appendRow(path, row)
}

func formatCell(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// drop the trailing ".0" the json decoder gives whole numbers
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	err = w.Write(row)
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
