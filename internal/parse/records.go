package parse

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"
)

// ErrMalformedInput is returned when the text holds no tabular data at all.
var ErrMalformedInput = errors.New("malformed input: no header line")

// Row is one data line keyed by header name. Every value stays a string.
type Row map[string]string

// Get returns the trimmed value for key, or "" when the column is absent.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Options tunes the tokenizer. The zero value splits on commas.
type Options struct {
	Delimiter rune
}

// Records parses delimited text with the default options.
func Records(text string) ([]Row, error) {
	return RecordsWithOptions(text, Options{})
}

// RecordsWithOptions turns delimited text into header-keyed rows.
// Fields wrapped in double quotes may contain the delimiter. Lines that cannot
// be tokenized are skipped with a warning; only empty input is an error.
func RecordsWithOptions(text string, opts Options) ([]Row, error) {
	// Spreadsheet exports often start with a UTF-8 byte order mark.
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, ErrMalformedInput
	}

	reader := csv.NewReader(strings.NewReader(text))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // Allow a variable number of fields
	reader.LazyQuotes = true

	var headers []string
	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping unreadable line: %v", err)
			continue
		}
		if isBlank(record) {
			continue
		}

		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	if headers == nil {
		return nil, ErrMalformedInput
	}
	return rows, nil
}

// isBlank reports a whitespace-only line, which the csv reader yields as a single field.
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
