package transcode

import (
	"sort"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-like tree node. The zero Value is null.
//
// Numbers keep the decimal text they were decoded from so that values such as
// 1.0 or 12345678901234567890 survive conversion unchanged.
type Value struct {
	kind  Kind
	text  string
	truth bool
	items []Value
	obj   *Object

	// folded marks a list built by Object.Merge.
	folded bool
}

// NullValue returns the null scalar.
func NullValue() Value { return Value{} }

// StringValue returns a string scalar.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// NumberValue returns a number scalar holding its canonical decimal text.
func NumberValue(text string) Value { return Value{kind: KindNumber, text: text} }

// BoolValue returns a boolean scalar.
func BoolValue(b bool) Value { return Value{kind: KindBool, truth: b} }

// ListValue returns a list holding items in order.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// ObjectValue wraps o. A nil o is treated as an empty object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is null, a string, a number or a bool.
func (v Value) IsScalar() bool {
	return v.kind != KindList && v.kind != KindObject
}

// Str returns the text of a string or number value.
func (v Value) Str() string { return v.text }

// Bool returns the truth value of a bool value.
func (v Value) Bool() bool { return v.truth }

// Items returns the elements of a list value.
func (v Value) Items() []Value { return v.items }

// Object returns the object of an object value, or nil.
func (v Value) Object() *Object { return v.obj }

// ScalarText renders a scalar the way it appears in markup and table cells:
// null is empty, booleans are true/false and numbers keep their decimal text.
func (v Value) ScalarText() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		if v.truth {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Equal reports whether v and other hold the same tree, including object key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString, KindNumber:
		return v.text == other.text
	case KindBool:
		return v.truth == other.truth
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(other.obj)
	}
	return false
}

// Object is an insertion-ordered map from string keys to Values.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set stores v under key. Replacing an existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int { return len(o.keys) }

// Merge inserts v under key. The first repeated key upgrades the stored value
// to a list holding both, later repeats append to that list.
//
// Merge is the folding rule for repeated markup children; the list it builds
// is tracked so that a value that already was a list is not flattened into it.
func (o *Object) Merge(key string, v Value) {
	prev, ok := o.vals[key]
	if !ok {
		o.Set(key, v)
		return
	}
	if prev.kind == KindList && prev.folded {
		prev.items = append(prev.items, v)
		o.vals[key] = prev
		return
	}
	o.vals[key] = Value{kind: KindList, items: []Value{prev, v}, folded: true}
}

// Sorted returns a copy of o with keys in lexical order, applied recursively.
func (o *Object) Sorted() *Object {
	keys := o.Keys()
	sort.Strings(keys)
	out := NewObject()
	for _, k := range keys {
		out.Set(k, o.vals[k].SortKeys())
	}
	return out
}

// SortKeys returns v with every nested object's keys in lexical order.
func (v Value) SortKeys() Value {
	switch v.kind {
	case KindObject:
		return ObjectValue(v.obj.Sorted())
	case KindList:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.SortKeys()
		}
		return ListValue(items...)
	default:
		return v
	}
}

func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if len(o.keys) != len(other.keys) {
		return false
	}
	for i, k := range o.keys {
		if other.keys[i] != k {
			return false
		}
		if !o.vals[k].Equal(other.vals[k]) {
			return false
		}
	}
	return true
}

// String renders v as compact JSON, for diagnostics and tests.
func (v Value) String() string {
	var b strings.Builder
	_ = writeJSON(&b, v, 0, 0)
	return b.String()
}
