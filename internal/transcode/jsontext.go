package transcode

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// maxNestingDepth bounds object and list nesting while decoding.
const maxNestingDepth = 1000

// DecodeJSON parses text into an ordered value tree. Object key order is kept.
// A repeated key keeps its first position and its last value, and is
// reported as a warning.
func DecodeJSON(text string) (Value, []Issue, error) {
	if strings.TrimSpace(text) == "" {
		return Value{}, nil, &InputSyntaxError{Format: "json", Msg: "empty document"}
	}
	// The token stream does not check separators, so the grammar is checked
	// up front.
	if !j.Valid([]byte(text)) {
		return Value{}, nil, jsonSyntaxError(text, strictJSONError(text))
	}

	dec := j.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	d := &jsonDecoder{dec: dec}

	tok, err := dec.Token()
	if err == io.EOF {
		return Value{}, nil, &InputSyntaxError{Format: "json", Msg: "empty document"}
	}
	if err != nil {
		return Value{}, nil, jsonSyntaxError(text, err)
	}
	v, err := d.value(tok, "", 0)
	if err != nil {
		return Value{}, nil, jsonSyntaxError(text, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return Value{}, nil, jsonSyntaxError(text, err)
	}
	return v, d.issues, nil
}

type jsonDecoder struct {
	dec    *j.Decoder
	issues []Issue
}

func (d *jsonDecoder) value(tok j.Token, path string, depth int) (Value, error) {
	if depth > maxNestingDepth {
		return Value{}, fmt.Errorf("nesting deeper than %d levels", maxNestingDepth)
	}
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			return d.object(path, depth)
		case '[':
			return d.list(path, depth)
		}
		return Value{}, fmt.Errorf("unexpected %q", rune(t))
	case string:
		return StringValue(t), nil
	case j.Number:
		if !jsonNumber.MatchString(string(t)) {
			return Value{}, fmt.Errorf("invalid number %q", string(t))
		}
		return NumberValue(string(t)), nil
	case float64:
		return NumberValue(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return NullValue(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func (d *jsonDecoder) object(path string, depth int) (Value, error) {
	obj := NewObject()
	for d.dec.More() {
		kt, err := d.dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", kt)
		}
		vt, err := d.dec.Token()
		if err != nil {
			return Value{}, err
		}
		child := path + "/" + escapePointer(key)
		v, err := d.value(vt, child, depth+1)
		if err != nil {
			return Value{}, err
		}
		if _, dup := obj.Get(key); dup {
			d.issues = append(d.issues, Issue{
				Path:     child,
				Message:  fmt.Sprintf("duplicate key %q, last value kept", key),
				Severity: SeverityWarning,
				Code:     "duplicate_key",
			})
		}
		obj.Set(key, v)
	}
	if err := d.closing('}'); err != nil {
		return Value{}, err
	}
	return ObjectValue(obj), nil
}

func (d *jsonDecoder) list(path string, depth int) (Value, error) {
	items := []Value{}
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return Value{}, err
		}
		v, err := d.value(tok, path+"/"+strconv.Itoa(len(items)), depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if err := d.closing(']'); err != nil {
		return Value{}, err
	}
	return ListValue(items...), nil
}

func (d *jsonDecoder) closing(want j.Delim) error {
	tok, err := d.dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if got, ok := tok.(j.Delim); !ok || got != want {
		return fmt.Errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}

// strictJSONError returns the decoder's positioned error for text that
// failed j.Valid.
func strictJSONError(text string) error {
	var discard any
	if err := j.Unmarshal([]byte(text), &discard); err != nil {
		return err
	}
	return errors.New("invalid JSON")
}

func jsonSyntaxError(text string, err error) *InputSyntaxError {
	out := &InputSyntaxError{Format: "json", Msg: err.Error(), Err: err}
	var se *j.SyntaxError
	if errors.As(err, &se) {
		out.Line, out.Column = lineColumn(text, int(se.Offset))
	}
	return out
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return line, col
}

// EncodeJSON writes v as JSON text. An indent of zero writes compact output.
func EncodeJSON(v Value, indent int, sortKeys bool) string {
	if sortKeys {
		v = v.SortKeys()
	}
	var b strings.Builder
	_ = writeJSON(&b, v, indent, 0)
	if indent > 0 {
		b.WriteByte('\n')
	}
	return b.String()
}

func writeJSON(b *strings.Builder, v Value, indent, depth int) error {
	switch v.Kind() {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(v.ScalarText())
	case KindNumber:
		b.WriteString(v.Str())
	case KindString:
		return writeJSONString(b, v.Str())
	case KindList:
		items := v.Items()
		if len(items) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			if err := writeJSON(b, item, indent, depth+1); err != nil {
				return err
			}
		}
		newline(b, indent, depth)
		b.WriteByte(']')
	case KindObject:
		o := v.Object()
		if o.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		for i, key := range o.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			if err := writeJSONString(b, key); err != nil {
				return err
			}
			b.WriteByte(':')
			if indent > 0 {
				b.WriteByte(' ')
			}
			child, _ := o.Get(key)
			if err := writeJSON(b, child, indent, depth+1); err != nil {
				return err
			}
		}
		newline(b, indent, depth)
		b.WriteByte('}')
	}
	return nil
}

func writeJSONString(b *strings.Builder, s string) error {
	quoted, err := j.MarshalWithOption(s, j.DisableHTMLEscape())
	if err != nil {
		return err
	}
	b.Write(quoted)
	return nil
}

func newline(b *strings.Builder, indent, depth int) {
	if indent <= 0 {
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", indent*depth))
}
