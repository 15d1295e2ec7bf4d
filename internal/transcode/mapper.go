package transcode

import "errors"

// ToValue maps a markup element to a value tree.
//
//   - Attributes become an object under "@attributes".
//   - An element holding only text becomes a string.
//   - Text next to attributes or children is stored under "text".
//   - Children are stored under their tag. Repeated tags fold into a list in
//     document order.
//   - An element with no attributes, text or children becomes an empty object.
func ToValue(el *MarkupElement) Value {
	if len(el.Attrs) == 0 && len(el.Children) == 0 {
		if el.Text != "" {
			return StringValue(el.Text)
		}
		return ObjectValue(NewObject())
	}

	obj := NewObject()
	if len(el.Attrs) > 0 {
		attrs := NewObject()
		for _, a := range el.Attrs {
			attrs.Set(a.Name, StringValue(a.Value))
		}
		obj.Set(AttributesKey, ObjectValue(attrs))
	}
	if el.Text != "" {
		obj.Set(TextKey, StringValue(el.Text))
	}
	for _, c := range el.Children {
		obj.Merge(c.Tag, ToValue(c))
	}
	return ObjectValue(obj)
}

// ToMarkup maps v to an element named tag. It is the inverse of ToValue for
// elements that do not mix text with children and whose child tags do not
// collide with the reserved keys.
//
// Object keys become children, a list under a key becomes one sibling per
// item and a list nested directly in a list becomes a wrapper element with
// the same name. Scalars become text: null is empty, numbers and booleans use
// their canonical form. Names that are not valid markup names are sanitized.
func ToMarkup(v Value, tag string) *MarkupElement {
	el := NewElement(XMLName(tag))
	fillElement(el, v)
	return el
}

// ValueToMarkup maps a whole document to markup. Objects and scalars become
// the root element itself; a list becomes a root holding one itemTag element
// per item. Tag names are never taken from the data.
func ValueToMarkup(v Value, rootTag, itemTag string) (*MarkupElement, error) {
	if rootTag == "" {
		return nil, errors.New("a root element name is required")
	}
	if v.Kind() != KindList {
		return ToMarkup(v, rootTag), nil
	}
	if itemTag == "" {
		return nil, errors.New("an item element name is required for a top-level list")
	}
	root := NewElement(XMLName(rootTag))
	appendValue(root, itemTag, v)
	return root, nil
}

func fillElement(el *MarkupElement, v Value) {
	switch v.Kind() {
	case KindObject:
		o := v.Object()
		for _, key := range o.Keys() {
			val, _ := o.Get(key)
			switch {
			case key == AttributesKey && val.Kind() == KindObject:
				attrs := val.Object()
				for _, name := range attrs.Keys() {
					av, _ := attrs.Get(name)
					el.SetAttr(XMLName(name), attrText(av))
				}
				continue
			case key == TextKey && val.IsScalar():
				el.Text = val.ScalarText()
				continue
			}
			appendValue(el, key, val)
		}
	case KindList:
		appendValue(el, DefaultItemElement, v)
	default:
		el.Text = v.ScalarText()
	}
}

func appendValue(parent *MarkupElement, key string, v Value) {
	name := XMLName(key)
	if v.Kind() != KindList {
		fillElement(parent.AddChild(name), v)
		return
	}
	for _, item := range v.Items() {
		if item.Kind() == KindList {
			appendValue(parent.AddChild(name), key, item)
			continue
		}
		fillElement(parent.AddChild(name), item)
	}
}

func attrText(v Value) string {
	if v.IsScalar() {
		return v.ScalarText()
	}
	return v.String()
}
