package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxYAMLNodes bounds alias expansion while decoding.
const maxYAMLNodes = 1_000_000

var (
	jsonNumber = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)
	yamlLine   = regexp.MustCompile(`line (\d+)`)
)

// DecodeYAML parses the first document in text into a value tree. Mapping
// order is kept, aliases and merge keys are resolved. Keys that are not
// strings are stringified and non-finite floats become strings; both are
// reported as warnings, as is any document after the first.
func DecodeYAML(text string) (Value, []Issue, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return NullValue(), nil, nil
		}
		return Value{}, nil, yamlSyntaxError(err)
	}

	d := &yamlDecoder{}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	v, err := d.value(root, "", 0)
	if err != nil {
		return Value{}, nil, &InputSyntaxError{Format: "yaml", Line: root.Line, Msg: err.Error(), Err: err}
	}

	var next yaml.Node
	if err := dec.Decode(&next); err == nil {
		d.warn("", "multiple_documents", "only the first document was converted")
	}
	return v, d.issues, nil
}

type yamlDecoder struct {
	issues []Issue
	nodes  int
}

func (d *yamlDecoder) warn(path, code, msg string) {
	d.issues = append(d.issues, Issue{Path: path, Message: msg, Severity: SeverityWarning, Code: code})
}

func (d *yamlDecoder) value(n *yaml.Node, path string, depth int) (Value, error) {
	d.nodes++
	if d.nodes > maxYAMLNodes {
		return Value{}, fmt.Errorf("document expands to more than %d nodes", maxYAMLNodes)
	}
	if depth > maxNestingDepth {
		return Value{}, fmt.Errorf("nesting deeper than %d levels", maxNestingDepth)
	}

	switch n.Kind {
	case yaml.AliasNode:
		return d.value(n.Alias, path, depth+1)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NullValue(), nil
		}
		return d.value(n.Content[0], path, depth)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := d.value(c, path+"/"+strconv.Itoa(i), depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ListValue(items...), nil
	case yaml.MappingNode:
		obj := NewObject()
		if err := d.mapping(obj, n, path, depth); err != nil {
			return Value{}, err
		}
		return ObjectValue(obj), nil
	case yaml.ScalarNode:
		return d.scalar(n, path), nil
	}
	return NullValue(), nil
}

func (d *yamlDecoder) mapping(obj *Object, n *yaml.Node, path string, depth int) error {
	explicit := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			if err := d.merge(obj, val, path, depth); err != nil {
				return err
			}
			continue
		}

		key := k.Value
		if k.Kind != yaml.ScalarNode {
			kv, err := d.value(k, path, depth+1)
			if err != nil {
				return err
			}
			key = kv.String()
		}
		child := path + "/" + escapePointer(key)
		if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
			d.warn(child, "non_string_key", fmt.Sprintf("key %s is not a string and was converted to %q", k.ShortTag(), key))
		}
		v, err := d.value(val, child, depth+1)
		if err != nil {
			return err
		}
		if explicit[key] {
			d.warn(child, "duplicate_key", fmt.Sprintf("duplicate key %q, last value kept", key))
		}
		explicit[key] = true
		obj.Set(key, v)
	}
	return nil
}

// merge copies the keys of a "<<" merge source into obj without replacing
// keys that are already present. Explicit keys that follow override merged ones.
func (d *yamlDecoder) merge(obj *Object, src *yaml.Node, path string, depth int) error {
	sources := []*yaml.Node{src}
	if src.Kind == yaml.SequenceNode {
		sources = src.Content
	}
	for _, s := range sources {
		v, err := d.value(s, path, depth+1)
		if err != nil {
			return err
		}
		if v.Kind() != KindObject {
			return errors.New("merge key value must be a mapping")
		}
		m := v.Object()
		for _, key := range m.Keys() {
			if _, ok := obj.Get(key); ok {
				continue
			}
			mv, _ := m.Get(key)
			obj.Set(key, mv)
		}
	}
	return nil
}

func (d *yamlDecoder) scalar(n *yaml.Node, path string) Value {
	switch n.ShortTag() {
	case "!!null":
		return NullValue()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return BoolValue(b)
		}
	case "!!int":
		if jsonNumber.MatchString(n.Value) {
			return NumberValue(n.Value)
		}
		var i int64
		if err := n.Decode(&i); err == nil {
			return NumberValue(strconv.FormatInt(i, 10))
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return NumberValue(strconv.FormatUint(u, 10))
		}
	case "!!float":
		if jsonNumber.MatchString(n.Value) {
			return NumberValue(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			if math.IsInf(f, 0) || math.IsNaN(f) {
				d.warn(path, "non_finite_number", fmt.Sprintf("%s has no JSON number form, kept as a string", n.Value))
				return StringValue(n.Value)
			}
			return NumberValue(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return StringValue(n.Value)
}

func yamlSyntaxError(err error) *InputSyntaxError {
	out := &InputSyntaxError{Format: "yaml", Msg: strings.TrimPrefix(err.Error(), "yaml: "), Err: err}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		out.Line, _ = strconv.Atoi(m[1])
	}
	return out
}

// EncodeYAML writes v as a YAML document.
func EncodeYAML(v Value, indent int, sortKeys bool) (string, error) {
	if sortKeys {
		v = v.SortKeys()
	}
	if indent < 2 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil
}

func yamlNode(v Value) *yaml.Node {
	switch v.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.ScalarText()}
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(v.Str(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Str()}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		o := v.Object()
		for _, key := range o.Keys() {
			child, _ := o.Get(key)
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				yamlNode(child))
		}
		return n
	}
}
