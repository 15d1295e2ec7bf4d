package core

// error_messages.go maps technical errors to user-facing messages with codes
// that can be quoted to support.
//
// # Document Errors (XML, INP, TAB, REC, REP, SCH)
//
//	XML001 - Markup is not well-formed
//	INP001 - JSON, YAML or CSV input is malformed
//	TAB001 - Tabular conversion needs a list of objects
//	REC001 - No record elements found
//	REP001 - Markup could not be repaired
//	SCH001 - Schema document could not be compiled
//
// # Request Errors (CNV, ART, FILE)
//
//	CNV001 - Too many conversions running
//	CNV002 - Input exceeds the size limit
//	CNV003 - Unknown operation
//	CNV004 - Conversion timed out
//	CNV005 - Unsupported validation format
//	ART001 - Artifact not found
//	FILE001 - No input provided
//	REQ001 - Malformed request parameter (raised by the web layer)
//
// # Other
//
//	RATE001 - Rate limited
//	ERR000  - Anything else; check the logs for the technical error

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/transcode"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

// typedError matches an error by type or identity.
type typedError struct {
	match func(error) bool
	msg   UserMessage
}

func asType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func is(sentinel error) func(error) bool {
	return func(err error) bool { return errors.Is(err, sentinel) }
}

// typedErrors is checked before errorPatterns. Order matters:
// UnrepairableMarkupError wraps a MarkupSyntaxError, so it comes first.
var typedErrors = []typedError{
	{
		match: asType[*transcode.UnrepairableMarkupError],
		msg: UserMessage{
			Message: "The markup could not be repaired",
			Action:  "Fix the reported line by hand and try again",
			Code:    "REP001",
		},
	},
	{
		match: asType[*transcode.MarkupSyntaxError],
		msg: UserMessage{
			Message: "The XML document is not well-formed",
			Action:  "Check the reported line and column, or run repair-xml first",
			Code:    "XML001",
		},
	},
	{
		match: asType[*transcode.InputSyntaxError],
		msg: UserMessage{
			Message: "The input document is malformed",
			Action:  "Check the reported line and column",
			Code:    "INP001",
		},
	},
	{
		match: asType[*transcode.TabularShapeError],
		msg: UserMessage{
			Message: "CSV output needs a list of objects",
			Action:  "Wrap the records in a top-level JSON array",
			Code:    "TAB001",
		},
	},
	{
		match: asType[*transcode.NoRecordsFoundError],
		msg: UserMessage{
			Message: "No record elements were found",
			Action:  "Set the record element name to the tag that repeats once per row",
			Code:    "REC001",
		},
	},
	{
		match: asType[*transcode.SchemaProcessingError],
		msg: UserMessage{
			Message: "The schema document could not be compiled",
			Action:  "Check that the schema is valid and has no external references",
			Code:    "SCH001",
		},
	},
	{
		match: is(ErrTooManyConversions),
		msg: UserMessage{
			Message: "The server is busy with other conversions",
			Action:  "Please try again in a few moments",
			Code:    "CNV001",
		},
	},
	{
		match: is(ErrInputTooLarge),
		msg: UserMessage{
			Message: "The input exceeds the maximum size",
			Action:  "Split the document into smaller parts",
			Code:    "CNV002",
		},
	},
	{
		match: is(ErrUnknownOperation),
		msg: UserMessage{
			Message: "Unknown conversion",
			Action:  "List the available conversions at /api/operations",
			Code:    "CNV003",
		},
	},
	{
		match: func(err error) bool {
			return errors.Is(err, ErrConversionTimeout) || errors.Is(err, context.DeadlineExceeded)
		},
		msg: UserMessage{
			Message: "The conversion took too long",
			Action:  "Try a smaller document or try again later",
			Code:    "CNV004",
		},
	},
	{
		match: is(ErrUnsupportedFormat),
		msg: UserMessage{
			Message: "Validation is not available for this format",
			Action:  "Use json, yaml or xml",
			Code:    "CNV005",
		},
	},
	{
		match: is(store.ErrNotFound),
		msg: UserMessage{
			Message: "The requested artifact does not exist",
			Action:  "It may have expired; run the conversion again",
			Code:    "ART001",
		},
	},
	{
		match: is(ErrNoInput),
		msg: UserMessage{
			Message: "No input was provided",
			Action:  "Send the document as the request body or a file field",
			Code:    "FILE001",
		},
	},
}

// errorPattern maps a substring of an untyped error to a user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains after
// no typed error matched. First match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The input exceeds the maximum size",
			Action:  "Split the document into smaller parts",
			Code:    "CNV002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "No input was provided",
			Action:  "Send the document as the request body or a file field",
			Code:    "FILE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed engine and service errors are recognized first, then substrings of
// the error text. Unmatched errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// String renders "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// FormatUserError renders the mapped message for err.
func FormatUserError(err error) string {
	return MapError(err).String()
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its mapped message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
