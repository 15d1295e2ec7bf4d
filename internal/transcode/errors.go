package transcode

import "fmt"

// MarkupSyntaxError reports markup that is not well-formed.
type MarkupSyntaxError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *MarkupSyntaxError) Error() string {
	return fmt.Sprintf("markup syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *MarkupSyntaxError) Unwrap() error { return e.Err }

// InputSyntaxError reports malformed JSON, YAML or CSV input text.
type InputSyntaxError struct {
	Format string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *InputSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s syntax error at line %d, column %d: %s", e.Format, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s syntax error: %s", e.Format, e.Msg)
}

func (e *InputSyntaxError) Unwrap() error { return e.Err }

// TabularShapeError reports input that is not a list of objects.
// Index is the offending list position, or -1 when the top level itself is wrong.
type TabularShapeError struct {
	Index int
	Got   Kind
}

func (e *TabularShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("tabular conversion needs a list of objects, got %s", e.Got)
	}
	return fmt.Sprintf("tabular conversion needs a list of objects, item %d is %s", e.Index, e.Got)
}

// NoRecordsFoundError reports that no element named RecordTag was found.
type NoRecordsFoundError struct {
	RecordTag string
}

func (e *NoRecordsFoundError) Error() string {
	return fmt.Sprintf("no <%s> record elements found", e.RecordTag)
}

// UnrepairableMarkupError reports that the repair chain could not produce
// well-formed markup. Last is the final parser diagnostic.
type UnrepairableMarkupError struct {
	Last *MarkupSyntaxError
}

func (e *UnrepairableMarkupError) Error() string {
	return "markup could not be repaired: " + e.Last.Error()
}

func (e *UnrepairableMarkupError) Unwrap() error { return e.Last }

// SchemaProcessingError reports a schema document that could not be compiled.
type SchemaProcessingError struct {
	Schema string // "json" or "xml"
	Msg    string
	Err    error
}

func (e *SchemaProcessingError) Error() string {
	return fmt.Sprintf("invalid %s schema: %s", e.Schema, e.Msg)
}

func (e *SchemaProcessingError) Unwrap() error { return e.Err }
