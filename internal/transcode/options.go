package transcode

// Default option values.
const (
	DefaultRecordElement = "record"
	DefaultSeparator     = "_"
	DefaultIndentWidth   = 2

	// DefaultValueRoot names the root element when a JSON or YAML document becomes markup.
	DefaultValueRoot = "root"
	// DefaultTableRoot names the root element when a table becomes markup.
	DefaultTableRoot = "records"
	// DefaultItemElement names the children of a top-level list written as markup.
	DefaultItemElement = "item"
)

// Options configures a single conversion call. The zero value selects the defaults.
type Options struct {
	// RootElementName names the markup root. Empty uses the operation default.
	RootElementName string
	// RecordElementName names one table row in markup.
	RecordElementName string
	// FlattenSeparator joins nested keys into column names.
	FlattenSeparator string
	// IndentWidth is the number of spaces per nesting level. Zero selects the
	// default, a negative value disables indentation.
	IndentWidth int
	// SortKeys orders object keys lexically in JSON and YAML output.
	SortKeys bool
}

func (o Options) root(def string) string {
	if o.RootElementName != "" {
		return o.RootElementName
	}
	return def
}

func (o Options) record() string {
	if o.RecordElementName != "" {
		return o.RecordElementName
	}
	return DefaultRecordElement
}

func (o Options) separator() string {
	if o.FlattenSeparator != "" {
		return o.FlattenSeparator
	}
	return DefaultSeparator
}

func (o Options) indent() int {
	switch {
	case o.IndentWidth == 0:
		return DefaultIndentWidth
	case o.IndentWidth < 0:
		return 0
	default:
		return o.IndentWidth
	}
}
