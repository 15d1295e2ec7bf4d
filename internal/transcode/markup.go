package transcode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// ParseMarkup parses text into its root element.
//
// Namespace prefixes are kept as written. Comments, processing instructions
// and directives are skipped. Any declared encoding is ignored: text is
// already decoded.
func ParseMarkup(text string) (*MarkupElement, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		root  *MarkupElement
		stack []*MarkupElement
		texts []*strings.Builder
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, markupError(dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, markupErrorf(dec, "unexpected element <%s> after the root element", qualifiedName(t.Name))
			}
			el := &MarkupElement{Tag: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 {
				return nil, markupErrorf(dec, "unexpected end element </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.Tag != name {
				return nil, markupErrorf(dec, "element <%s> closed by </%s>", top.Tag, name)
			}
			top.Text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, markupErrorf(dec, "character data outside the root element")
				}
				continue
			}
			texts[len(texts)-1].Write(t)
		}
	}

	if len(stack) > 0 {
		return nil, markupErrorf(dec, "unexpected end of input, <%s> is not closed", stack[len(stack)-1].Tag)
	}
	if root == nil {
		return nil, markupErrorf(dec, "no root element")
	}
	return root, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func markupError(dec *xml.Decoder, err error) *MarkupSyntaxError {
	line, col := dec.InputPos()
	msg := err.Error()
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		msg = se.Msg
		line = se.Line
	}
	return &MarkupSyntaxError{Line: line, Column: col, Msg: msg, Err: err}
}

func markupErrorf(dec *xml.Decoder, format string, args ...any) *MarkupSyntaxError {
	line, col := dec.InputPos()
	return &MarkupSyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// WriteMarkup serializes el as a document with an XML declaration.
// An indent of zero or less writes everything on one line.
func WriteMarkup(el *MarkupElement, indent int) string {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(toEtree(el))
	if indent > 0 {
		doc.Indent(indent)
	} else {
		doc.Indent(etree.NoIndent)
	}
	out, _ := doc.WriteToString()
	return out
}

func toEtree(el *MarkupElement) *etree.Element {
	e := etree.NewElement(el.Tag)
	for _, a := range el.Attrs {
		e.CreateAttr(a.Name, stripInvalidXMLChars(a.Value))
	}
	if el.Text != "" {
		e.SetText(stripInvalidXMLChars(el.Text))
	}
	for _, c := range el.Children {
		e.AddChild(toEtree(c))
	}
	return e
}

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func stripInvalidXMLChars(s string) string {
	clean := true
	for _, r := range s {
		if !isXMLChar(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	return strings.Map(func(r rune) rune {
		if !isXMLChar(r) {
			return -1
		}
		return r
	}, s)
}

// IsXMLName reports whether s is usable as an element or attribute name.
// A single colon separating two names is allowed.
func IsXMLName(s string) bool {
	if s == "" {
		return false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i, r := range p {
			if i == 0 && !isNameStart(r) || i > 0 && !isNameChar(r) {
				return false
			}
		}
	}
	return true
}

// XMLName turns s into a valid element name. Valid names pass unchanged.
// Invalid runes become underscores and a leading underscore is added when
// the first rune cannot start a name.
func XMLName(s string) string {
	if IsXMLName(s) {
		return s
	}
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case i == 0 && !isNameStart(r):
			b.WriteByte('_')
			if isNameChar(r) {
				b.WriteRune(r)
			}
		case !isNameChar(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
