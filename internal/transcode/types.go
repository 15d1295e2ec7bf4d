package transcode

import "strings"

// Reserved object keys used by the markup mapping.
const (
	AttributesKey = "@attributes"
	TextKey       = "text"
)

// Attr is one markup attribute. Prefixed names such as xmlns:x are kept literally.
type Attr struct {
	Name  string
	Value string
}

// MarkupElement is one parsed element and its subtree.
//
// Text is the trimmed concatenation of the element's own character data;
// an empty Text means the element carries no text.
type MarkupElement struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*MarkupElement
}

// NewElement returns an element with the given tag and no content.
func NewElement(tag string) *MarkupElement {
	return &MarkupElement{Tag: tag}
}

// Attr returns the value of the named attribute.
func (e *MarkupElement) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets name to value, replacing an existing attribute in place.
func (e *MarkupElement) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// AddChild appends a new child element and returns it.
func (e *MarkupElement) AddChild(tag string) *MarkupElement {
	c := NewElement(tag)
	e.Children = append(e.Children, c)
	return c
}

// LocalName strips a namespace prefix from the element tag.
func (e *MarkupElement) LocalName() string {
	return localName(e.Tag)
}

// Prefix returns the namespace prefix of the element tag, if any.
func (e *MarkupElement) Prefix() string {
	if i := strings.IndexByte(e.Tag, ':'); i >= 0 {
		return e.Tag[:i]
	}
	return ""
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// FlatRow is one table record: an ordered map from column name to cell text.
type FlatRow struct {
	keys  []string
	cells map[string]string
}

func NewFlatRow() *FlatRow {
	return &FlatRow{cells: make(map[string]string)}
}

// Set stores value under column. Replacing keeps the column position.
func (r *FlatRow) Set(column, value string) {
	if _, ok := r.cells[column]; !ok {
		r.keys = append(r.keys, column)
	}
	r.cells[column] = value
}

func (r *FlatRow) Get(column string) (string, bool) {
	v, ok := r.cells[column]
	return v, ok
}

// Columns returns the row's columns in insertion order.
func (r *FlatRow) Columns() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *FlatRow) Len() int { return len(r.keys) }

// Table is a list of rows sharing one column set.
//
// Columns is the union of the row columns in first-seen order. Every row
// produced by this package has a cell for each column.
type Table struct {
	Columns []string
	Rows    []*FlatRow
}

// Values returns the cells of row i in column order.
func (t *Table) Values(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j], _ = t.Rows[i].Get(c)
	}
	return out
}

// columnSet accumulates a first-seen ordered union of column names.
type columnSet struct {
	order []string
	seen  map[string]struct{}
}

func newColumnSet() *columnSet {
	return &columnSet{seen: make(map[string]struct{})}
}

func (s *columnSet) add(name string) {
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

// squareTable fills every row with an empty cell for each column it lacks,
// keeping the row's cells in table column order.
func squareTable(columns []string, rows []*FlatRow) *Table {
	out := make([]*FlatRow, len(rows))
	for i, r := range rows {
		sq := NewFlatRow()
		for _, c := range columns {
			v, _ := r.Get(c)
			sq.Set(c, v)
		}
		out[i] = sq
	}
	return &Table{Columns: columns, Rows: out}
}

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation or conversion diagnostic.
//
// Path is a JSON pointer for object-notation documents and a slash separated
// element path such as /root/item[2] for markup documents.
type Issue struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
}

// Result is the outcome of a conversion.
type Result struct {
	Success     bool    `json:"success"`
	Text        string  `json:"-"`
	Diagnostics []Issue `json:"diagnostics,omitempty"`
}

// ValidationReport is the outcome of a validation call.
//
// Valid is false only when an error severity issue was found.
// SchemaValidated reports whether a grammar check actually ran.
type ValidationReport struct {
	Valid           bool    `json:"valid"`
	SchemaValidated bool    `json:"schema_validated"`
	Issues          []Issue `json:"issues"`
}

// Errors returns the number of error severity issues.
func (r *ValidationReport) Errors() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (r *ValidationReport) add(issues ...Issue) {
	r.Issues = append(r.Issues, issues...)
	for _, is := range issues {
		if is.Severity == SeverityError {
			r.Valid = false
		}
	}
}
