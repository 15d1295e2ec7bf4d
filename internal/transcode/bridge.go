package transcode

import (
	"fmt"
	"strings"
)

var columnNameReplacer = strings.NewReplacer(" ", "_", "-", "_", "(", "_", ")", "_")

// ColumnElementName derives the element name for a table column: spaces,
// hyphens and parentheses become underscores and the result is made a valid
// markup name.
func ColumnElementName(column string) string {
	return XMLName(columnNameReplacer.Replace(column))
}

// TableToMarkup wraps one recordTag element per row in a rootTag element.
// Each column becomes a child element named by ColumnElementName. When two
// columns map to the same name the first one wins and the later column is
// reported and skipped. Characters that markup cannot carry are dropped from
// cell text.
func TableToMarkup(t *Table, rootTag, recordTag string) (*MarkupElement, []Issue) {
	var issues []Issue
	names := make([]string, len(t.Columns))
	taken := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		name := ColumnElementName(col)
		if first, ok := taken[name]; ok {
			issues = append(issues, Issue{
				Path:     "/" + escapePointer(col),
				Message:  fmt.Sprintf("column %q maps to element <%s> already used by column %q, skipped", col, name, first),
				Severity: SeverityWarning,
				Code:     "column_collision",
			})
			continue
		}
		taken[name] = col
		names[i] = name
	}

	root := NewElement(XMLName(rootTag))
	for i := range t.Rows {
		rec := root.AddChild(XMLName(recordTag))
		for j, cell := range t.Values(i) {
			if names[j] == "" {
				continue
			}
			rec.AddChild(names[j]).Text = stripInvalidXMLChars(cell)
		}
	}
	return root, issues
}

// MarkupToTable collects every element named recordTag below root, at any
// depth, and turns each into a row mapping child tag to child text. Records
// nested inside a matched record belong to it and are not collected again.
// A repeated child tag keeps its last text.
func MarkupToTable(root *MarkupElement, recordTag string) (*Table, error) {
	var records []*MarkupElement
	var walk func(el *MarkupElement)
	walk = func(el *MarkupElement) {
		for _, c := range el.Children {
			if c.Tag == recordTag {
				records = append(records, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	if len(records) == 0 {
		return nil, &NoRecordsFoundError{RecordTag: recordTag}
	}

	cols := newColumnSet()
	rows := make([]*FlatRow, 0, len(records))
	for _, rec := range records {
		row := NewFlatRow()
		for _, field := range rec.Children {
			row.Set(field.Tag, field.Text)
			cols.add(field.Tag)
		}
		rows = append(rows, row)
	}
	return squareTable(cols.order, rows), nil
}
