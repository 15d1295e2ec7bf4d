package transcode

// Text-in, text-out conversions. Each parses its input, runs one mapping and
// serializes the result. Decode warnings are returned as diagnostics.

// XMLToJSON maps the document root to JSON. The root tag itself is not part
// of the output.
func XMLToJSON(text string, opts Options) (*Result, error) {
	root, err := ParseMarkup(text)
	if err != nil {
		return nil, err
	}
	return ok(EncodeJSON(ToValue(root), opts.indent(), opts.SortKeys)), nil
}

// JSONToXML wraps the document in a root element named by the options,
// "root" by default. Items of a top-level list are named by the record
// element name.
func JSONToXML(text string, opts Options) (*Result, error) {
	v, issues, err := DecodeJSON(text)
	if err != nil {
		return nil, err
	}
	return valueToXML(v, issues, opts)
}

// YAMLToXML is JSONToXML for YAML input.
func YAMLToXML(text string, opts Options) (*Result, error) {
	v, issues, err := DecodeYAML(text)
	if err != nil {
		return nil, err
	}
	return valueToXML(v, issues, opts)
}

func valueToXML(v Value, issues []Issue, opts Options) (*Result, error) {
	if opts.SortKeys {
		v = v.SortKeys()
	}
	itemTag := opts.RecordElementName
	if itemTag == "" {
		itemTag = DefaultItemElement
	}
	root, err := ValueToMarkup(v, opts.root(DefaultValueRoot), itemTag)
	if err != nil {
		return nil, err
	}
	return withIssues(WriteMarkup(root, opts.indent()), issues), nil
}

// JSONToCSV flattens a JSON list of objects into CSV.
func JSONToCSV(text string, opts Options) (*Result, error) {
	v, issues, err := DecodeJSON(text)
	if err != nil {
		return nil, err
	}
	t, flatIssues, err := Flatten(v, opts.separator())
	if err != nil {
		return nil, err
	}
	issues = append(issues, flatIssues...)
	out, err := WriteCSV(t)
	if err != nil {
		return nil, err
	}
	return withIssues(out, issues), nil
}

// CSVToJSON rebuilds nested objects from CSV columns. Cells stay strings.
func CSVToJSON(text string, opts Options) (*Result, error) {
	t, issues, err := ReadCSV(text)
	if err != nil {
		return nil, err
	}
	v, more := Unflatten(t.Rows, opts.separator())
	return withIssues(EncodeJSON(v, opts.indent(), opts.SortKeys), append(issues, more...)), nil
}

// CSVToXML writes one record element per CSV row under a root element,
// "records" by default.
func CSVToXML(text string, opts Options) (*Result, error) {
	t, issues, err := ReadCSV(text)
	if err != nil {
		return nil, err
	}
	root, more := TableToMarkup(t, opts.root(DefaultTableRoot), opts.record())
	return withIssues(WriteMarkup(root, opts.indent()), append(issues, more...)), nil
}

// XMLToCSV collects record elements, at any depth, into CSV rows.
func XMLToCSV(text string, opts Options) (*Result, error) {
	root, err := ParseMarkup(text)
	if err != nil {
		return nil, err
	}
	t, err := MarkupToTable(root, opts.record())
	if err != nil {
		return nil, err
	}
	out, err := WriteCSV(t)
	if err != nil {
		return nil, err
	}
	return ok(out), nil
}

// JSONToYAML re-encodes a JSON document as YAML.
func JSONToYAML(text string, opts Options) (*Result, error) {
	v, issues, err := DecodeJSON(text)
	if err != nil {
		return nil, err
	}
	out, err := EncodeYAML(v, opts.indent(), opts.SortKeys)
	if err != nil {
		return nil, err
	}
	return withIssues(out, issues), nil
}

// YAMLToJSON re-encodes the first YAML document as JSON.
func YAMLToJSON(text string, opts Options) (*Result, error) {
	v, issues, err := DecodeYAML(text)
	if err != nil {
		return nil, err
	}
	return withIssues(EncodeJSON(v, opts.indent(), opts.SortKeys), issues), nil
}

// XMLToYAML maps the document root to YAML.
func XMLToYAML(text string, opts Options) (*Result, error) {
	root, err := ParseMarkup(text)
	if err != nil {
		return nil, err
	}
	out, err := EncodeYAML(ToValue(root), opts.indent(), opts.SortKeys)
	if err != nil {
		return nil, err
	}
	return ok(out), nil
}

// RepairXML runs the repair chain and returns the repaired text unchanged
// otherwise. Each pass that fired is listed as a warning.
func RepairXML(text string, _ Options) (*Result, error) {
	rep, err := RepairWithReport(text)
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(rep.Applied))
	for _, pass := range rep.Applied {
		issues = append(issues, Issue{
			Path:     "/",
			Message:  "repaired " + pass,
			Severity: SeverityWarning,
			Code:     "repaired",
		})
	}
	return withIssues(rep.Text, issues), nil
}

func ok(text string) *Result {
	return &Result{Success: true, Text: text}
}

func withIssues(text string, issues []Issue) *Result {
	r := ok(text)
	if len(issues) > 0 {
		r.Diagnostics = issues
	}
	return r
}
