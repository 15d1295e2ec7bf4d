package transcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMarkup(t *testing.T) {
	input := `<?xml version="1.0" encoding="ISO-8859-1"?>
<!-- catalog -->
<cat:list xmlns:cat="urn:cat" id="7">
  <item lang="en">  Pen &amp; Ink  </item>
  <item><![CDATA[<raw>]]></item>
  <empty/>
</cat:list>`

	got, err := ParseMarkup(input)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	want := &MarkupElement{
		Tag:   "cat:list",
		Attrs: []Attr{{Name: "xmlns:cat", Value: "urn:cat"}, {Name: "id", Value: "7"}},
		Children: []*MarkupElement{
			{Tag: "item", Attrs: []Attr{{Name: "lang", Value: "en"}}, Text: "Pen & Ink"},
			{Tag: "item", Text: "<raw>"},
			{Tag: "empty"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseMarkup mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMarkup_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"mismatched end tag", "<a><b></a></b>"},
		{"unclosed element", "<a><b></b>"},
		{"second root", "<a/><b/>"},
		{"text after root", "<a/>tail"},
		{"undefined entity", "<a>&nbsp;</a>"},
		{"bare ampersand", "<a>x & y</a>"},
		{"control character", "<a>\x01</a>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkup(tt.input)
			var se *MarkupSyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want MarkupSyntaxError", err)
			}
			if se.Line < 1 {
				t.Errorf("Line = %d, want >= 1", se.Line)
			}
		})
	}
}

func TestParseMarkup_ReportsLine(t *testing.T) {
	_, err := ParseMarkup("<a>\n<b>\n</c>\n</a>")
	var se *MarkupSyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want MarkupSyntaxError", err)
	}
	if se.Line != 3 {
		t.Errorf("Line = %d, want 3", se.Line)
	}
}

func TestWriteMarkup_Reparses(t *testing.T) {
	el := &MarkupElement{
		Tag:   "root",
		Attrs: []Attr{{Name: "note", Value: `say "hi" & <bye>`}},
		Children: []*MarkupElement{
			{Tag: "a", Text: "Tom & Jerry <3"},
			{Tag: "b", Children: []*MarkupElement{{Tag: "c", Text: "deep"}}},
			{Tag: "d"},
		},
	}

	for _, indent := range []int{0, 2, 4} {
		out := WriteMarkup(el, indent)
		if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
			t.Errorf("indent %d: missing declaration in %q", indent, out)
		}
		got, err := ParseMarkup(out)
		if err != nil {
			t.Fatalf("indent %d: reparse: %v\n%s", indent, err, out)
		}
		if diff := cmp.Diff(el, got); diff != "" {
			t.Errorf("indent %d: reparse mismatch (-want +got):\n%s", indent, diff)
		}
	}
}

func TestWriteMarkup_DropsInvalidCharacters(t *testing.T) {
	el := &MarkupElement{Tag: "a", Text: "x\x00y\x1bz"}
	got, err := ParseMarkup(WriteMarkup(el, 0))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got.Text != "xyz" {
		t.Errorf("Text = %q, want %q", got.Text, "xyz")
	}
}

func TestXMLName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"name", "name"},
		{"ns:tag", "ns:tag"},
		{"first name", "first_name"},
		{"1abc", "_1abc"},
		{"", "_"},
		{"a/b", "a_b"},
		{"-x", "_-x"},
		{"a:b:c", "a_b_c"},
		{"café", "café"},
	}
	for _, tt := range tests {
		if got := XMLName(tt.in); got != tt.want {
			t.Errorf("XMLName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
