package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/transcode"
)

func TestMapError(t *testing.T) {
	syntax := &transcode.MarkupSyntaxError{Line: 2, Column: 3, Msg: "unexpected EOF"}

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"markup syntax", syntax, "XML001"},
		{"wrapped markup syntax", fmt.Errorf("xml-to-json: %w", syntax), "XML001"},
		{"unrepairable wins over its cause", &transcode.UnrepairableMarkupError{Last: syntax}, "REP001"},
		{"input syntax", &transcode.InputSyntaxError{Format: "json", Msg: "bad"}, "INP001"},
		{"tabular shape", &transcode.TabularShapeError{Index: -1, Got: transcode.KindObject}, "TAB001"},
		{"no records", &transcode.NoRecordsFoundError{RecordTag: "row"}, "REC001"},
		{"schema", &transcode.SchemaProcessingError{Schema: "json", Msg: "bad"}, "SCH001"},
		{"limiter", ErrTooManyConversions, "CNV001"},
		{"too large", fmt.Errorf("%w: more than 10 bytes", ErrInputTooLarge), "CNV002"},
		{"unknown operation", fmt.Errorf("%w: foo", ErrUnknownOperation), "CNV003"},
		{"timeout", ErrConversionTimeout, "CNV004"},
		{"deadline", context.DeadlineExceeded, "CNV004"},
		{"unsupported format", ErrUnsupportedFormat, "CNV005"},
		{"artifact missing", store.ErrNotFound, "ART001"},
		{"no input", ErrNoInput, "FILE001"},
		{"missing multipart file", errors.New("http: no such file"), "FILE001"},
		{"rate limit text", errors.New("Rate Limit exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyConversions)
	want := "The server is busy with other conversions (Code: CNV001). Please try again in a few moments"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(&transcode.NoRecordsFoundError{RecordTag: "x"}) {
		t.Error("NoRecordsFoundError should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("plain error should not be user facing")
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	cause := &transcode.TabularShapeError{Index: 2, Got: transcode.KindString}
	ue := NewUserError(cause)
	if ue.User.Code != "TAB001" {
		t.Errorf("Code = %q, want TAB001", ue.User.Code)
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want the user message", ue.Error())
	}
	var target *transcode.TabularShapeError
	if !errors.As(ue, &target) || target.Index != 2 {
		t.Error("UserError does not unwrap to its technical error")
	}
}
