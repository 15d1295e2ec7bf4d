package core

import (
	"io"
	"time"

	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/transcode"
)

// Config holds the service limits and per-call defaults.
type Config struct {
	MaxInputSize  int64
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration

	// Defaults fills Options fields a request leaves unset.
	Defaults transcode.Options
}

// ConvertRequest is one conversion call.
type ConvertRequest struct {
	Operation string
	FileName  string
	Body      io.Reader
	Options   transcode.Options

	// Inline skips persisting the output as an artifact.
	Inline bool
}

// ConvertResult is the outcome of a successful conversion.
type ConvertResult struct {
	Operation   Operation
	Text        string
	Diagnostics []transcode.Issue

	// Artifact is nil for inline conversions.
	Artifact *store.Artifact
}

// ValidateRequest is one validation call. Schema may be nil.
type ValidateRequest struct {
	Format   string
	Document io.Reader
	Schema   io.Reader
}

// RetentionConfig controls the artifact purge job.
type RetentionConfig struct {
	MaxAge   time.Duration // Artifacts older than this are deleted
	Interval time.Duration // How often the job runs
}
