package transcode

import (
	"fmt"
	"strings"
)

// Flatten turns a list of objects into a table. Nested object keys are joined
// with sep, lists are kept whole as compact JSON text and null becomes an
// empty cell. The column set is the union over all records in first-seen
// order; a record lacking a column gets an empty cell.
//
// An empty nested object contributes no column. When two paths in one record
// join to the same column, the first value is kept and the later one is
// reported as a column_conflict warning.
func Flatten(records Value, sep string) (*Table, []Issue, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	if records.Kind() != KindList {
		return nil, nil, &TabularShapeError{Index: -1, Got: records.Kind()}
	}

	var issues []Issue
	cols := newColumnSet()
	rows := make([]*FlatRow, 0, len(records.Items()))
	for i, item := range records.Items() {
		if item.Kind() != KindObject {
			return nil, nil, &TabularShapeError{Index: i, Got: item.Kind()}
		}
		f := &flattener{row: NewFlatRow(), sep: sep, index: i}
		f.object("", "", item.Object())
		for _, c := range f.row.Columns() {
			cols.add(c)
		}
		issues = append(issues, f.issues...)
		rows = append(rows, f.row)
	}
	return squareTable(cols.order, rows), issues, nil
}

// flattener fills one row. pointer tracks the JSON pointer of the value
// being written so conflicts name the source path, not the column.
type flattener struct {
	row    *FlatRow
	sep    string
	index  int
	issues []Issue
}

func (f *flattener) object(prefix, pointer string, o *Object) {
	for _, key := range o.Keys() {
		v, _ := o.Get(key)
		path := key
		if prefix != "" {
			path = prefix + f.sep + key
		}
		ptr := pointer + "/" + escapePointer(key)
		switch v.Kind() {
		case KindObject:
			f.object(path, ptr, v.Object())
		case KindList:
			f.set(path, ptr, v.String())
		default:
			f.set(path, ptr, v.ScalarText())
		}
	}
}

func (f *flattener) set(column, pointer, cell string) {
	if _, taken := f.row.Get(column); taken {
		f.issues = append(f.issues, Issue{
			Path:     fmt.Sprintf("/%d%s", f.index, pointer),
			Message:  fmt.Sprintf("value joins to existing column %q, value dropped", column),
			Severity: SeverityWarning,
			Code:     "column_conflict",
		})
		return
	}
	f.row.Set(column, cell)
}

// Unflatten rebuilds a list of objects from rows by splitting column names on
// sep. Cells stay strings. It inverts Flatten when no original key contained
// sep.
//
// A column whose path runs through a cell already holding a string is stored
// under its full column name in the deepest object reached. A column that
// would replace a nested object is dropped; both cases are reported.
func Unflatten(rows []*FlatRow, sep string) (Value, []Issue) {
	if sep == "" {
		sep = DefaultSeparator
	}
	var issues []Issue
	items := make([]Value, 0, len(rows))
	for i, row := range rows {
		obj := NewObject()
		for _, col := range row.Columns() {
			cell, _ := row.Get(col)
			if msg := setPath(obj, col, sep, StringValue(cell)); msg != "" {
				issues = append(issues, Issue{
					Path:     fmt.Sprintf("/%d/%s", i, escapePointer(col)),
					Message:  msg,
					Severity: SeverityWarning,
					Code:     "column_conflict",
				})
			}
		}
		items = append(items, ObjectValue(obj))
	}
	return ListValue(items...), issues
}

func setPath(obj *Object, column, sep string, v Value) string {
	parts := strings.Split(column, sep)
	cur := obj
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.Get(p)
		if !ok {
			child := NewObject()
			cur.Set(p, ObjectValue(child))
			cur = child
			continue
		}
		if next.Kind() != KindObject {
			cur.Set(column, v)
			return fmt.Sprintf("column %q conflicts with value %q, kept as a literal key", column, p)
		}
		cur = next.Object()
	}

	last := parts[len(parts)-1]
	if existing, ok := cur.Get(last); ok && existing.Kind() == KindObject {
		return fmt.Sprintf("column %q conflicts with nested columns, value dropped", column)
	}
	cur.Set(last, v)
	return ""
}

// escapePointer escapes one JSON pointer reference token.
func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
