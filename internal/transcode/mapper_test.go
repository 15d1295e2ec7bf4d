package transcode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, text string) *MarkupElement {
	t.Helper()
	el, err := ParseMarkup(text)
	if err != nil {
		t.Fatalf("ParseMarkup(%q): %v", text, err)
	}
	return el
}

func mustDecode(t *testing.T, text string) Value {
	t.Helper()
	v, _, err := DecodeJSON(text)
	if err != nil {
		t.Fatalf("DecodeJSON(%q): %v", text, err)
	}
	return v
}

func TestToValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "repeated children fold into a list",
			input: `<root><item>1</item><item>2</item></root>`,
			want:  `{"item":["1","2"]}`,
		},
		{
			name:  "leaf becomes a string",
			input: `<root>hello</root>`,
			want:  `"hello"`,
		},
		{
			name:  "empty element becomes an empty object",
			input: `<root><a/><b></b><c>  </c></root>`,
			want:  `{"a":{},"b":{},"c":{}}`,
		},
		{
			name:  "attributes come first",
			input: `<p id="1" class="x"><q>v</q></p>`,
			want:  `{"@attributes":{"id":"1","class":"x"},"q":"v"}`,
		},
		{
			name:  "text next to attributes uses the text key",
			input: `<p id="1">body</p>`,
			want:  `{"@attributes":{"id":"1"},"text":"body"}`,
		},
		{
			name:  "mixed content keeps text and children",
			input: `<p>lead <b>bold</b> tail</p>`,
			want:  `{"text":"lead  tail","b":"bold"}`,
		},
		{
			name:  "three repeats keep order",
			input: `<a><b>x</b><b>y</b><b>z</b></a>`,
			want:  `{"b":["x","y","z"]}`,
		},
		{
			name:  "interleaved repeats group by tag",
			input: `<a><b>1</b><c>2</c><b>3</b></a>`,
			want:  `{"b":["1","3"],"c":"2"}`,
		},
		{
			name:  "prefixed names are kept",
			input: `<x:a xmlns:x="urn:x"><x:b>1</x:b></x:a>`,
			want:  `{"@attributes":{"xmlns:x":"urn:x"},"x:b":"1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToValue(mustParse(t, tt.input)).String()
			if got != tt.want {
				t.Errorf("ToValue = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToValue_RepeatedTagListLength(t *testing.T) {
	for n := 2; n <= 6; n++ {
		root := NewElement("r")
		for i := 0; i < n; i++ {
			root.AddChild("x").Text = string(rune('a' + i))
		}
		v, _ := ToValue(root).Object().Get("x")
		if v.Kind() != KindList || len(v.Items()) != n {
			t.Fatalf("n=%d: got %s", n, v)
		}
		for i, item := range v.Items() {
			if want := string(rune('a' + i)); item.Str() != want {
				t.Errorf("n=%d: item %d = %q, want %q", n, i, item.Str(), want)
			}
		}
	}
}

func TestRoundTrip_MarkupValueMarkup(t *testing.T) {
	inputs := []string{
		`<a><b>x</b><b>y</b><b>z</b></a>`,
		`<order id="42" status="open"><customer>Ann</customer><line sku="1">pen</line><line sku="2">ink</line><note/></order>`,
		`<root><empty/><nested><deeper><deepest>1</deepest></deeper></nested></root>`,
		`<p lang="en">plain text</p>`,
		`<ns:doc xmlns:ns="urn:ns"><ns:item>1</ns:item></ns:doc>`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			orig := mustParse(t, in)
			back := ToMarkup(ToValue(orig), orig.Tag)
			if diff := cmp.Diff(orig, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tag   string
		want  *MarkupElement
	}{
		{
			name:  "scalars become text",
			input: `{"s":"x","n":1.5,"t":true,"z":null}`,
			tag:   "r",
			want: &MarkupElement{Tag: "r", Children: []*MarkupElement{
				{Tag: "s", Text: "x"},
				{Tag: "n", Text: "1.5"},
				{Tag: "t", Text: "true"},
				{Tag: "z"},
			}},
		},
		{
			name:  "list under a key repeats the key",
			input: `{"b":["1",{"c":"2"}]}`,
			tag:   "a",
			want: &MarkupElement{Tag: "a", Children: []*MarkupElement{
				{Tag: "b", Text: "1"},
				{Tag: "b", Children: []*MarkupElement{{Tag: "c", Text: "2"}}},
			}},
		},
		{
			name:  "nested list becomes a wrapper element",
			input: `{"m":[["1","2"],"3"]}`,
			tag:   "r",
			want: &MarkupElement{Tag: "r", Children: []*MarkupElement{
				{Tag: "m", Children: []*MarkupElement{{Tag: "m", Text: "1"}, {Tag: "m", Text: "2"}}},
				{Tag: "m", Text: "3"},
			}},
		},
		{
			name:  "reserved keys map to attributes and text",
			input: `{"@attributes":{"id":7},"text":"body"}`,
			tag:   "p",
			want:  &MarkupElement{Tag: "p", Attrs: []Attr{{Name: "id", Value: "7"}}, Text: "body"},
		},
		{
			name:  "invalid names are sanitized",
			input: `{"first name":"a","2nd":"b"}`,
			tag:   "row item",
			want: &MarkupElement{Tag: "row_item", Children: []*MarkupElement{
				{Tag: "first_name", Text: "a"},
				{Tag: "_2nd", Text: "b"},
			}},
		},
		{
			name:  "top-level scalar",
			input: `false`,
			tag:   "flag",
			want:  &MarkupElement{Tag: "flag", Text: "false"},
		},
		{
			name:  "empty object is an empty element",
			input: `{}`,
			tag:   "e",
			want:  &MarkupElement{Tag: "e"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMarkup(mustDecode(t, tt.input), tt.tag)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToMarkup mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValueToMarkup(t *testing.T) {
	list := mustDecode(t, `[1,{"a":"x"}]`)

	got, err := ValueToMarkup(list, "items", "entry")
	if err != nil {
		t.Fatalf("ValueToMarkup: %v", err)
	}
	want := &MarkupElement{Tag: "items", Children: []*MarkupElement{
		{Tag: "entry", Text: "1"},
		{Tag: "entry", Children: []*MarkupElement{{Tag: "a", Text: "x"}}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValueToMarkup mismatch (-want +got):\n%s", diff)
	}

	if _, err := ValueToMarkup(list, "", "entry"); err == nil {
		t.Error("missing root tag: want error")
	}
	if _, err := ValueToMarkup(list, "items", ""); err == nil {
		t.Error("missing item tag for list: want error")
	}
	if _, err := ValueToMarkup(StringValue("x"), "v", ""); err != nil {
		t.Errorf("scalar without item tag: %v", err)
	}
}
