package transcode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses CSV text whose first record is the header. Short records
// are padded with empty cells; a record longer than the header is an error.
// Blank header names become column_N and repeated names get a numeric
// suffix, both reported as warnings.
func ReadCSV(text string) (*Table, []Issue, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, &InputSyntaxError{Format: "csv", Msg: "missing header row"}
	}
	if err != nil {
		return nil, nil, csvSyntaxError(err)
	}

	var issues []Issue
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
			issues = append(issues, Issue{
				Path:     "/" + escapePointer(name),
				Message:  fmt.Sprintf("header %d is blank, named %q", i+1, name),
				Severity: SeverityWarning,
				Code:     "blank_header",
			})
		}
		columns[i] = name
	}

	// A renamed duplicate must not take a name another header already has.
	taken := make(map[string]bool, len(columns))
	for _, name := range columns {
		taken[name] = true
	}
	used := make(map[string]bool, len(columns))
	for i, name := range columns {
		if used[name] {
			renamed := name
			for n := 2; taken[renamed] || used[renamed]; n++ {
				renamed = fmt.Sprintf("%s_%d", name, n)
			}
			issues = append(issues, Issue{
				Path:     "/" + escapePointer(renamed),
				Message:  fmt.Sprintf("header %q repeats, renamed to %q", name, renamed),
				Severity: SeverityWarning,
				Code:     "duplicate_header",
			})
			columns[i] = renamed
			name = renamed
		}
		used[name] = true
	}

	var rows []*FlatRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, csvSyntaxError(err)
		}
		if len(rec) > len(columns) {
			line, _ := r.FieldPos(0)
			return nil, nil, &InputSyntaxError{
				Format: "csv",
				Line:   line,
				Column: 1,
				Msg:    fmt.Sprintf("record has %d fields, header has %d", len(rec), len(columns)),
			}
		}
		row := NewFlatRow()
		for i, col := range columns {
			if i < len(rec) {
				row.Set(col, rec[i])
			} else {
				row.Set(col, "")
			}
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}, issues, nil
}

func csvSyntaxError(err error) *InputSyntaxError {
	out := &InputSyntaxError{Format: "csv", Msg: err.Error(), Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		out.Line, out.Column, out.Msg = pe.Line, pe.Column, pe.Err.Error()
	}
	return out
}

// WriteCSV writes the header followed by one record per row.
func WriteCSV(t *Table) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(t.Columns); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for i := range t.Rows {
		if err := w.Write(t.Values(i)); err != nil {
			return "", fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return b.String(), nil
}
