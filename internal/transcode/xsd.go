package transcode

import (
	"fmt"
	"strings"
	"testing/fstest"

	"github.com/beevik/etree"
	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// schemaFile is the name the uploaded schema is loaded under.
const schemaFile = "schema.xsd"

// MarkupSchema is a compiled W3C XML Schema. Instance elements must be in
// the schema's target namespace.
type MarkupSchema struct {
	TargetNamespace string

	schema *xsd.Schema
}

func schemaErrorf(format string, args ...any) *SchemaProcessingError {
	return &SchemaProcessingError{Schema: "xml", Msg: fmt.Sprintf(format, args...)}
}

// CompileMarkupSchema compiles a single XML Schema document. Includes,
// imports and redefines that name a schemaLocation are rejected.
func CompileMarkupSchema(text string) (*MarkupSchema, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, &SchemaProcessingError{Schema: "xml", Msg: err.Error(), Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "schema" || root.NamespaceURI() != xsdNamespace {
		return nil, schemaErrorf("document root must be an xs:schema element")
	}
	for _, e := range root.ChildElements() {
		switch e.Tag {
		case "include", "import", "redefine", "override":
			if loc := e.SelectAttrValue("schemaLocation", ""); loc != "" {
				return nil, schemaErrorf("external reference %q is not supported", loc)
			}
		}
	}

	fsys := fstest.MapFS{schemaFile: &fstest.MapFile{Data: []byte(text)}}
	s, err := xsd.Load(fsys, schemaFile)
	if err != nil {
		return nil, &SchemaProcessingError{Schema: "xml", Msg: err.Error(), Err: err}
	}
	return &MarkupSchema{
		TargetNamespace: root.SelectAttrValue("targetNamespace", ""),
		schema:          s,
	}, nil
}

// check validates an XML document against the schema.
func (s *MarkupSchema) check(text string) []Issue {
	err := s.schema.Validate(strings.NewReader(text))
	if err == nil {
		return nil
	}
	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		return []Issue{{Path: "/", Message: err.Error(), Severity: SeverityError, Code: "schema_invalid"}}
	}
	issues := make([]Issue, 0, len(violations))
	for _, v := range violations {
		issues = append(issues, schemaViolation(v))
	}
	return issues
}

func schemaViolation(v xsderrors.Validation) Issue {
	path := v.Path
	if path == "" {
		path = "/"
	}
	msg := v.Message
	if len(v.Expected) > 0 {
		msg += fmt.Sprintf(" (expected %s)", strings.Join(v.Expected, ", "))
	}
	if v.Actual != "" {
		msg += fmt.Sprintf(" (got %s)", v.Actual)
	}
	return Issue{Path: path, Message: msg, Severity: SeverityError, Code: v.Code}
}
