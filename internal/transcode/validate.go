package transcode

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is a compiled JSON Schema document.
type JSONSchema struct {
	schema *gojsonschema.Schema
}

// CompileJSONSchema compiles a JSON Schema given as JSON or YAML text.
// References outside the document are rejected so that compiling never
// reaches the network or the file system.
func CompileJSONSchema(text string) (*JSONSchema, error) {
	doc, _, err := DecodeJSON(text)
	if err != nil {
		var yerr error
		if doc, _, yerr = DecodeYAML(text); yerr != nil {
			return nil, &SchemaProcessingError{Schema: "json", Msg: err.Error(), Err: err}
		}
	}
	if doc.Kind() != KindObject && doc.Kind() != KindBool {
		return nil, &SchemaProcessingError{Schema: "json", Msg: "schema must be an object or a boolean"}
	}
	if ref := externalRef(doc); ref != "" {
		return nil, &SchemaProcessingError{Schema: "json", Msg: fmt.Sprintf("external reference %q is not supported", ref)}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(EncodeJSON(doc, 0, false)))
	if err != nil {
		return nil, &SchemaProcessingError{Schema: "json", Msg: err.Error(), Err: err}
	}
	return &JSONSchema{schema: s}, nil
}

// externalRef returns the first $ref that does not point into the document.
func externalRef(v Value) string {
	switch v.Kind() {
	case KindObject:
		o := v.Object()
		for _, k := range o.Keys() {
			child, _ := o.Get(k)
			if k == "$ref" && child.Kind() == KindString && !strings.HasPrefix(child.Str(), "#") {
				return child.Str()
			}
			if ref := externalRef(child); ref != "" {
				return ref
			}
		}
	case KindList:
		for _, item := range v.Items() {
			if ref := externalRef(item); ref != "" {
				return ref
			}
		}
	}
	return ""
}

// ValidateValue checks v against schema and adds structural warnings the
// schema language does not express. A nil schema runs the warnings only.
// The result is sorted, so identical inputs give identical issue lists.
func ValidateValue(v Value, schema *JSONSchema) ([]Issue, error) {
	issues := structuralWarnings(v)

	if schema != nil {
		res, err := schema.schema.Validate(gojsonschema.NewStringLoader(EncodeJSON(v, 0, false)))
		if err != nil {
			return nil, fmt.Errorf("validate document: %w", err)
		}
		for _, re := range res.Errors() {
			issues = append(issues, Issue{
				Path:     pointerFromContext(re.Context().String("/")),
				Message:  re.Description(),
				Severity: SeverityError,
				Code:     re.Type(),
			})
		}
	}

	sortIssues(issues)
	return issues, nil
}

// pointerFromContext turns a gojsonschema context such as (root)/a/0 into
// the JSON pointer /a/0. The document root is reported as "/".
func pointerFromContext(ctx string) string {
	p := strings.TrimPrefix(ctx, "(root)")
	if p == "" {
		return "/"
	}
	return p
}

func structuralWarnings(v Value) []Issue {
	var out []Issue
	if v.Kind() == KindObject && v.Object().Len() == 0 {
		out = append(out, Issue{Path: "/", Message: "document root is an empty object", Severity: SeverityWarning, Code: "empty_root"})
	}
	var walk func(v Value, path string)
	walk = func(v Value, path string) {
		switch v.Kind() {
		case KindObject:
			o := v.Object()
			for _, k := range o.Keys() {
				child, _ := o.Get(k)
				cp := path + "/" + escapePointer(k)
				if k == "" {
					out = append(out, Issue{Path: cp, Message: "object has an empty key", Severity: SeverityWarning, Code: "empty_key"})
				}
				walk(child, cp)
			}
		case KindList:
			for i, item := range v.Items() {
				walk(item, fmt.Sprintf("%s/%d", path, i))
			}
		}
	}
	walk(v, "")
	return out
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// ValidateMarkup runs the sanity checks on root and, when schema is not nil,
// validates it against the schema.
func ValidateMarkup(root *MarkupElement, schema *MarkupSchema) []Issue {
	if root == nil {
		return validateMarkup(nil, schema, "")
	}
	return validateMarkup(root, schema, WriteMarkup(root, 0))
}

// validateMarkup checks root and, with a schema, the document text it was
// parsed from.
func validateMarkup(root *MarkupElement, schema *MarkupSchema, text string) []Issue {
	if root == nil {
		return []Issue{{Path: "/", Message: "document has no root element", Severity: SeverityError, Code: "missing_root"}}
	}
	issues := namespaceWarnings(root, schema)
	if schema != nil {
		issues = append(issues, schema.check(text)...)
	}
	sortIssues(issues)
	return issues
}

// namespaceWarnings reports prefixes used without a declaration in scope
// and, when validating, a root namespace that differs from the schema's
// target namespace.
func namespaceWarnings(root *MarkupElement, schema *MarkupSchema) []Issue {
	var out []Issue
	var walk func(el *MarkupElement, path string, scope map[string]string)
	walk = func(el *MarkupElement, path string, scope map[string]string) {
		local, copied := scope, false
		for _, a := range el.Attrs {
			var prefix string
			switch {
			case a.Name == "xmlns":
			case strings.HasPrefix(a.Name, "xmlns:"):
				prefix = strings.TrimPrefix(a.Name, "xmlns:")
			default:
				continue
			}
			if !copied {
				local, copied = maps.Clone(scope), true
			}
			local[prefix] = a.Value
		}

		check := func(name, where string) {
			i := strings.IndexByte(name, ':')
			if i < 0 {
				return
			}
			p := name[:i]
			if p == "xml" || p == "xmlns" {
				return
			}
			if _, ok := local[p]; !ok {
				out = append(out, Issue{
					Path:     where,
					Message:  fmt.Sprintf("namespace prefix %q is used without a declaration", p),
					Severity: SeverityWarning,
					Code:     "undeclared_namespace",
				})
			}
		}
		check(el.Tag, path)
		for _, a := range el.Attrs {
			if a.Name != "xmlns" && !strings.HasPrefix(a.Name, "xmlns:") {
				check(a.Name, path+"/@"+a.Name)
			}
		}
		for i := range el.Children {
			walk(el.Children[i], childPath(path, el.Children, i), local)
		}
	}
	walk(root, "/"+root.Tag, map[string]string{})

	if schema != nil {
		ns := rootNamespace(root)
		if ns != schema.TargetNamespace {
			out = append(out, Issue{
				Path:     "/" + root.Tag,
				Message:  fmt.Sprintf("root namespace %q differs from schema target namespace %q", ns, schema.TargetNamespace),
				Severity: SeverityWarning,
				Code:     "namespace_mismatch",
			})
		}
	}
	return out
}

// childPath builds the path of kids[i], indexing it among same-named siblings.
func childPath(parent string, kids []*MarkupElement, i int) string {
	tag := kids[i].Tag
	n, pos := 0, 0
	for j, k := range kids {
		if k.Tag == tag {
			n++
			if j == i {
				pos = n
			}
		}
	}
	if n > 1 {
		return fmt.Sprintf("%s/%s[%d]", parent, tag, pos)
	}
	return parent + "/" + tag
}

func rootNamespace(root *MarkupElement) string {
	key := "xmlns"
	if p := root.Prefix(); p != "" {
		key = "xmlns:" + p
	}
	ns, _ := root.Attr(key)
	return ns
}

// ValidateJSONText validates a JSON document. schemaText may be empty.
func ValidateJSONText(text, schemaText string) *ValidationReport {
	return validateValueText(text, schemaText, DecodeJSON)
}

// ValidateYAMLText validates a YAML document against a JSON Schema given as
// JSON or YAML. schemaText may be empty.
func ValidateYAMLText(text, schemaText string) *ValidationReport {
	return validateValueText(text, schemaText, DecodeYAML)
}

func validateValueText(text, schemaText string, decode func(string) (Value, []Issue, error)) *ValidationReport {
	rep := &ValidationReport{Valid: true, Issues: []Issue{}}
	v, warnings, err := decode(text)
	if err != nil {
		rep.add(syntaxIssue(err))
		return rep
	}
	rep.add(warnings...)

	var schema *JSONSchema
	if strings.TrimSpace(schemaText) != "" {
		if schema, err = CompileJSONSchema(schemaText); err != nil {
			rep.add(schemaIssue(err))
		}
	}
	issues, err := ValidateValue(v, schema)
	if err != nil {
		rep.add(schemaIssue(err))
		issues, _ = ValidateValue(v, nil)
		schema = nil
	}
	rep.add(issues...)
	rep.SchemaValidated = schema != nil
	return rep
}

// ValidateMarkupText validates an XML document. schemaText may be empty.
func ValidateMarkupText(text, schemaText string) *ValidationReport {
	rep := &ValidationReport{Valid: true, Issues: []Issue{}}
	root, err := ParseMarkup(text)
	if err != nil {
		var se *MarkupSyntaxError
		if errors.As(err, &se) && se.Msg == "no root element" {
			rep.add(validateMarkup(nil, nil, "")...)
			return rep
		}
		rep.add(syntaxIssue(err))
		return rep
	}

	var schema *MarkupSchema
	if strings.TrimSpace(schemaText) != "" {
		if schema, err = CompileMarkupSchema(schemaText); err != nil {
			rep.add(schemaIssue(err))
		}
	}
	rep.add(validateMarkup(root, schema, text)...)
	rep.SchemaValidated = schema != nil
	return rep
}

func syntaxIssue(err error) Issue {
	return Issue{Path: "/", Message: err.Error(), Severity: SeverityError, Code: "syntax"}
}

// schemaIssue reports a schema that could not be used. The document is
// still checked, so this is a warning.
func schemaIssue(err error) Issue {
	return Issue{Path: "/", Message: err.Error(), Severity: SeverityWarning, Code: "schema_error"}
}
