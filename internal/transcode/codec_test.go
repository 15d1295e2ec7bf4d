package transcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeJSON_KeepsOrderAndNumbers(t *testing.T) {
	in := `{"z":1,"a":1.0,"m":[1e3,-0.5,12345678901234567890],"s":"x\"y","t":true,"n":null}`
	v, issues, err := DecodeJSON(in)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	if got := EncodeJSON(v, 0, false); got != in {
		t.Errorf("EncodeJSON = %s, want %s", got, in)
	}
}

func TestDecodeJSON_DuplicateKeys(t *testing.T) {
	v, issues, err := DecodeJSON(`{"a":1,"b":2,"a":3}`)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got := v.String(); got != `{"a":3,"b":2}` {
		t.Errorf("value = %s, want {\"a\":3,\"b\":2}", got)
	}
	if len(issues) != 1 || issues[0].Code != "duplicate_key" || issues[0].Path != "/a" {
		t.Errorf("issues = %v, want one duplicate_key at /a", issues)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \n"},
		{"unterminated object", `{"a":1`},
		{"trailing data", `{"a":1} {"b":2}`},
		{"trailing garbage", `[1,2] x`},
		{"bad literal", `{"a":tru}`},
		{"missing colon", `{"a" 1}`},
		{"missing comma in list", `[1 2]`},
		{"missing comma in object", `{"a":1 "b":2}`},
		{"leading zero", `01`},
		{"nested leading zero", `{"a":[-007]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeJSON(tt.input)
			var se *InputSyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want InputSyntaxError", err)
			}
			if se.Format != "json" {
				t.Errorf("Format = %q, want json", se.Format)
			}
		})
	}
}

func TestEncodeJSON_Indent(t *testing.T) {
	v := mustDecode(t, `{"b":[1,{}],"a":{"c":[]}}`)

	want := "{\n  \"b\": [\n    1,\n    {}\n  ],\n  \"a\": {\n    \"c\": []\n  }\n}\n"
	if got := EncodeJSON(v, 2, false); got != want {
		t.Errorf("EncodeJSON indent 2 =\n%s\nwant\n%s", got, want)
	}

	wantSorted := `{"a":{"c":[]},"b":[1,{}]}`
	if got := EncodeJSON(v, 0, true); got != wantSorted {
		t.Errorf("EncodeJSON sorted = %s, want %s", got, wantSorted)
	}
}

func TestLineColumn(t *testing.T) {
	text := "ab\ncd\nef"
	tests := []struct {
		offset             int
		wantLine, wantCol int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := lineColumn(text, tt.offset)
		if line != tt.wantLine || col != tt.wantCol {
			t.Errorf("lineColumn(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.wantLine, tt.wantCol)
		}
	}
}

func TestDecodeYAML(t *testing.T) {
	in := `
z: 1
a: hello
list:
  - 1.5
  - true
  - ~
base: &base
  x: 1
  y: 2
derived:
  <<: *base
  y: 3
hex: 0x1F
quoted: "007"
`
	v, issues, err := DecodeYAML(in)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	want := `{"z":1,"a":"hello","list":[1.5,true,null],"base":{"x":1,"y":2},"derived":{"x":1,"y":3},"hex":31,"quoted":"007"}`
	if got := v.String(); got != want {
		t.Errorf("DecodeYAML =\n%s\nwant\n%s", got, want)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
}

func TestDecodeYAML_Warnings(t *testing.T) {
	in := "1: one\nbig: .inf\n---\nsecond: doc\n"
	v, issues, err := DecodeYAML(in)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if got := v.String(); got != `{"1":"one","big":".inf"}` {
		t.Errorf("value = %s", got)
	}
	var codes []string
	for _, is := range issues {
		codes = append(codes, is.Code)
	}
	want := []string{"non_string_key", "non_finite_number", "multiple_documents"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("issue codes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeYAML_SyntaxError(t *testing.T) {
	_, _, err := DecodeYAML("a: [1, 2\nb: 3\n")
	var se *InputSyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want InputSyntaxError", err)
	}
	if se.Format != "yaml" {
		t.Errorf("Format = %q, want yaml", se.Format)
	}
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	v := mustDecode(t, `{"b":"true","a":1,"n":null,"f":2.5,"list":["x",{"k":"007"}],"empty":[],"obj":{}}`)
	out, err := EncodeYAML(v, 2, false)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	back, _, err := DecodeYAML(out)
	if err != nil {
		t.Fatalf("DecodeYAML: %v\n%s", err, out)
	}
	if !back.Equal(v) {
		t.Errorf("round trip = %s, want %s\nyaml:\n%s", back, v, out)
	}
	if !strings.HasPrefix(out, "b: ") {
		t.Errorf("key order not kept:\n%s", out)
	}
}

func TestReadCSV(t *testing.T) {
	in := "name,age,note\nAl,5,\"a, b\"\nBo\n\"Cy\",7,\"multi\nline\"\n"
	table, issues, err := ReadCSV(in)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	cols, rows := tableCells(table)
	if diff := cmp.Diff([]string{"name", "age", "note"}, cols); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{{"Al", "5", "a, b"}, {"Bo", "", ""}, {"Cy", "7", "multi\nline"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_Headers(t *testing.T) {
	table, issues, err := ReadCSV("id,,id,id\n1,2,3,4\n")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "column_2", "id_2", "id_3"}, table.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(issues) != 3 {
		t.Errorf("issues = %v, want 3", issues)
	}
}

func TestReadCSV_RenamedHeaderKeepsExistingName(t *testing.T) {
	table, issues, err := ReadCSV("a_2,a,a\n1,2,3\n")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff([]string{"a_2", "a", "a_3"}, table.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, table.Values(0)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if len(issues) != 1 || issues[0].Code != "duplicate_header" {
		t.Errorf("issues = %v, want one duplicate_header", issues)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"record longer than header", "a,b\n1,2,3\n"},
		{"bare quote", "a\n\"x\"y\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadCSV(tt.input)
			var se *InputSyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want InputSyntaxError", err)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	table := squareTable([]string{"a", "b"}, rowsOf(
		[][2]string{{"a", "1"}, {"b", "x,y"}},
		[][2]string{{"a", "say \"hi\""}},
	))
	got, err := WriteCSV(table)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "a,b\n1,\"x,y\"\n\"say \"\"hi\"\"\",\n"
	if got != want {
		t.Errorf("WriteCSV = %q, want %q", got, want)
	}
}
