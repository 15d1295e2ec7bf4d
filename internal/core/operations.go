package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/transcode/internal/transcode"
)

// ErrUnknownOperation is returned for operation names nobody registered.
var ErrUnknownOperation = errors.New("unknown operation")

// ConvertFunc is the engine entry point behind an Operation.
type ConvertFunc func(text string, opts transcode.Options) (*transcode.Result, error)

// Operation describes one registered conversion.
type Operation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	From        string `json:"from"`
	To          string `json:"to"`
	ContentType string `json:"content_type"`
	Extension   string `json:"extension"`

	Run ConvertFunc `json:"-"`
}

// OperationRegistry maps operation names to conversions. It is safe for
// concurrent use.
type OperationRegistry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewOperationRegistry returns an empty registry.
func NewOperationRegistry() *OperationRegistry {
	return &OperationRegistry{ops: make(map[string]Operation)}
}

// Register adds op. It panics on a duplicate name or a missing Run func,
// both of which are programming errors caught at init time.
func (r *OperationRegistry) Register(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op.Run == nil {
		panic(fmt.Sprintf("operation %s has no Run func", op.Name))
	}
	if _, exists := r.ops[op.Name]; exists {
		panic(fmt.Sprintf("operation already registered: %s", op.Name))
	}
	r.ops[op.Name] = op
}

// Lookup returns the operation called name.
func (r *OperationRegistry) Lookup(name string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.ops[name]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op, nil
}

// All returns every operation sorted by source format, then name.
func (r *OperationRegistry) All() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Formats returns the distinct source formats, sorted.
func (r *OperationRegistry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, op := range r.ops {
		seen[op.From] = true
	}
	formats := make([]string, 0, len(seen))
	for f := range seen {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Len returns the number of registered operations.
func (r *OperationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// DefaultOperations holds the built-in conversions.
var DefaultOperations = NewOperationRegistry()

const (
	contentTypeJSON = "application/json"
	contentTypeXML  = "application/xml"
	contentTypeCSV  = "text/csv"
	contentTypeYAML = "application/yaml"
)

func init() {
	for _, op := range []Operation{
		{Name: "xml-to-json", Description: "Map an XML document to JSON", From: "xml", To: "json", ContentType: contentTypeJSON, Extension: ".json", Run: transcode.XMLToJSON},
		{Name: "xml-to-yaml", Description: "Map an XML document to YAML", From: "xml", To: "yaml", ContentType: contentTypeYAML, Extension: ".yaml", Run: transcode.XMLToYAML},
		{Name: "xml-to-csv", Description: "Extract XML record elements into CSV rows", From: "xml", To: "csv", ContentType: contentTypeCSV, Extension: ".csv", Run: transcode.XMLToCSV},
		{Name: "repair-xml", Description: "Repair double-encoded entities and stray characters in XML", From: "xml", To: "xml", ContentType: contentTypeXML, Extension: ".xml", Run: transcode.RepairXML},
		{Name: "json-to-xml", Description: "Map a JSON document to XML", From: "json", To: "xml", ContentType: contentTypeXML, Extension: ".xml", Run: transcode.JSONToXML},
		{Name: "json-to-csv", Description: "Flatten a JSON list of objects into CSV", From: "json", To: "csv", ContentType: contentTypeCSV, Extension: ".csv", Run: transcode.JSONToCSV},
		{Name: "json-to-yaml", Description: "Re-encode a JSON document as YAML", From: "json", To: "yaml", ContentType: contentTypeYAML, Extension: ".yaml", Run: transcode.JSONToYAML},
		{Name: "yaml-to-json", Description: "Re-encode a YAML document as JSON", From: "yaml", To: "json", ContentType: contentTypeJSON, Extension: ".json", Run: transcode.YAMLToJSON},
		{Name: "yaml-to-xml", Description: "Map a YAML document to XML", From: "yaml", To: "xml", ContentType: contentTypeXML, Extension: ".xml", Run: transcode.YAMLToXML},
		{Name: "csv-to-json", Description: "Unflatten CSV rows into a JSON list", From: "csv", To: "json", ContentType: contentTypeJSON, Extension: ".json", Run: transcode.CSVToJSON},
		{Name: "csv-to-xml", Description: "Write CSV rows as XML record elements", From: "csv", To: "xml", ContentType: contentTypeXML, Extension: ".xml", Run: transcode.CSVToXML},
	} {
		DefaultOperations.Register(op)
	}
}
