package web

// errors.go renders every failure as a JSON ErrorResponse.
//
// The technical error is logged with the request ID; the client only sees the
// coded message from core.MapError.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/transcode/internal/core"
	"github.com/JonMunkholm/transcode/internal/logging"
	"github.com/JonMunkholm/transcode/internal/store"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrInputTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, core.ErrUnknownOperation),
		errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConversionTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}
	writeError(w, status, msg)
}

// writeError writes msg as an ErrorResponse.
func writeError(w http.ResponseWriter, status int, msg core.UserMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.String(),
		Action:  msg.Action,
		Code:    msg.Code,
	}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// badRequest reports a malformed request parameter.
func badRequest(w http.ResponseWriter, r *http.Request, param, reason string) {
	logging.FromContext(r.Context()).Warn("bad request parameter", "param", param, "reason", reason)
	writeError(w, http.StatusBadRequest, core.UserMessage{
		Message: "Invalid parameter " + strconv.Quote(param) + ": " + reason,
		Action:  "Fix the request and try again",
		Code:    "REQ001",
	})
}
