package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/transcode/internal/logging"
	"github.com/JonMunkholm/transcode/internal/metrics"
	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/transcode"
)

// DefaultTimeout bounds a single conversion when none is configured.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrConversionTimeout is returned when a conversion outlives its timeout.
	// The worker keeps running until the engine returns and its result is dropped.
	ErrConversionTimeout = errors.New("conversion timed out")

	// ErrUnsupportedFormat is returned for validation formats other than json, yaml and xml.
	ErrUnsupportedFormat = errors.New("unsupported validation format")

	// ErrNoInput is returned by callers that received no document at all.
	ErrNoInput = errors.New("no input provided")
)

// Service runs conversions and validations under the configured limits and
// persists conversion outputs.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	ops     *OperationRegistry
	limiter *ConversionLimiter
	cfg     Config
}

// NewService creates a Service. m may be nil to disable metrics.
func NewService(st store.Store, m *metrics.Metrics, cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputSize <= 0 {
		cfg.MaxInputSize = DefaultMaxInputSize
	}
	return &Service{
		store:   st,
		metrics: m,
		ops:     DefaultOperations,
		limiter: NewConversionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:     cfg,
	}
}

// Operations lists the registered conversions.
func (s *Service) Operations() []Operation {
	return s.ops.All()
}

// Convert reads the request body, runs the named operation and, unless the
// request is inline, stores the output as an artifact.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	op, err := s.ops.Lookup(req.Operation)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(ctx, append([]any{"operation", op.Name, "file", req.FileName}, clientFields(ctx)...)...)
	start := time.Now()

	in, err := ReadInput(req.Body, s.cfg.MaxInputSize)
	if err != nil {
		if errors.Is(err, ErrInputTooLarge) {
			s.metrics.Rejected("too_large")
		}
		logger.Warn("conversion input rejected", "error", err)
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyConversions) {
			s.metrics.Rejected("limiter")
		}
		logger.Warn("conversion slot unavailable", "error", err, "limiter", s.limiter.Status())
		return nil, err
	}

	opts := s.options(req.Options)
	res, err := runBounded(ctx, s.limiter, s.cfg.Timeout, func() (*transcode.Result, error) {
		return op.Run(in.Text, opts)
	})
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveConversion(op.Name, outcomeOf(err), elapsed, in.Size)
		logger.Warn("conversion failed",
			"error", err,
			"code", MapError(err).Code,
			"input_bytes", in.Size,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	out := &ConvertResult{
		Operation:   op,
		Text:        res.Text,
		Diagnostics: res.Diagnostics,
	}
	if in.Replaced > 0 {
		out.Diagnostics = append([]transcode.Issue{replacedBytesIssue(in.Replaced)}, out.Diagnostics...)
	}

	if !req.Inline {
		meta, err := s.store.Save(ctx, store.NewArtifact{
			Name:        artifactName(req.FileName, op),
			ContentType: op.ContentType,
			Operation:   op.Name,
			Content:     []byte(res.Text),
		})
		if err != nil {
			s.metrics.ObserveConversion(op.Name, "error", elapsed, in.Size)
			logger.Error("saving artifact failed", "error", err)
			return nil, fmt.Errorf("save artifact: %w", err)
		}
		out.Artifact = &meta
	}

	s.metrics.ObserveConversion(op.Name, "ok", elapsed, in.Size)

	attrs := []any{
		"input_bytes", in.Size,
		"output_bytes", len(res.Text),
		"diagnostics", len(out.Diagnostics),
		"duration_ms", elapsed.Milliseconds(),
	}
	if out.Artifact != nil {
		attrs = append(attrs, "artifact_id", out.Artifact.ID)
	}
	logger.Info("conversion completed", attrs...)

	return out, nil
}

// Validate checks a JSON, YAML or XML document against an optional schema.
// Document problems are reported in the returned report; the error is only
// set when the request itself could not be served.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*transcode.ValidationReport, error) {
	format := strings.ToLower(req.Format)
	var validate func(text, schema string) *transcode.ValidationReport
	switch format {
	case "json":
		validate = transcode.ValidateJSONText
	case "yaml", "yml":
		format = "yaml"
		validate = transcode.ValidateYAMLText
	case "xml":
		validate = transcode.ValidateMarkupText
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	logger := logging.WithFields(ctx, append([]any{"format", format}, clientFields(ctx)...)...)

	doc, err := ReadInput(req.Document, s.cfg.MaxInputSize)
	if err != nil {
		if errors.Is(err, ErrInputTooLarge) {
			s.metrics.Rejected("too_large")
		}
		return nil, err
	}
	var schema string
	if req.Schema != nil {
		sc, err := ReadInput(req.Schema, s.cfg.MaxInputSize)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		schema = sc.Text
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyConversions) {
			s.metrics.Rejected("limiter")
		}
		return nil, err
	}

	start := time.Now()
	rep, err := runBounded(ctx, s.limiter, s.cfg.Timeout, func() (*transcode.ValidationReport, error) {
		return validate(doc.Text, schema), nil
	})
	if err != nil {
		s.metrics.ObserveValidation(format, "error", 0, 0)
		logger.Warn("validation failed", "error", err)
		return nil, err
	}
	if doc.Replaced > 0 {
		rep.Issues = append([]transcode.Issue{replacedBytesIssue(doc.Replaced)}, rep.Issues...)
	}

	errCount := rep.Errors()
	outcome := "valid"
	if !rep.Valid {
		outcome = "invalid"
	}
	s.metrics.ObserveValidation(format, outcome, errCount, len(rep.Issues)-errCount)
	logger.Info("validation completed",
		"valid", rep.Valid,
		"schema_validated", rep.SchemaValidated,
		"errors", errCount,
		"issues", len(rep.Issues),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return rep, nil
}

// Artifact returns a stored conversion output.
func (s *Service) Artifact(ctx context.Context, id string) (store.Artifact, []byte, error) {
	return s.store.Open(ctx, id)
}

// RecentArtifacts lists up to limit stored outputs, newest first.
func (s *Service) RecentArtifacts(ctx context.Context, limit int) ([]store.Artifact, error) {
	return s.store.Recent(ctx, limit)
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until running conversions finish or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// options fills unset request options from the configured defaults.
func (s *Service) options(o transcode.Options) transcode.Options {
	d := s.cfg.Defaults
	if o.RootElementName == "" {
		o.RootElementName = d.RootElementName
	}
	if o.RecordElementName == "" {
		o.RecordElementName = d.RecordElementName
	}
	if o.FlattenSeparator == "" {
		o.FlattenSeparator = d.FlattenSeparator
	}
	if o.IndentWidth == 0 {
		o.IndentWidth = d.IndentWidth
	}
	o.SortKeys = o.SortKeys || d.SortKeys
	return o
}

// runBounded runs fn on its own goroutine, which owns the limiter slot the
// caller acquired and releases it when fn returns. If ctx ends or timeout
// passes first, runBounded returns immediately and fn's result is dropped.
func runBounded[T any](ctx context.Context, l *ConversionLimiter, timeout time.Duration, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer l.Release()
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{zero, fmt.Errorf("conversion panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- outcome{v, err}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrConversionTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, ErrConversionTimeout) {
		return "timeout"
	}
	return "error"
}

func replacedBytesIssue(n int) transcode.Issue {
	return transcode.Issue{
		Path:     "/",
		Message:  fmt.Sprintf("replaced %d invalid UTF-8 bytes with '?'", n),
		Severity: transcode.SeverityWarning,
		Code:     "invalid_utf8",
	}
}

// artifactName derives the download name from the uploaded file name.
func artifactName(fileName string, op Operation) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "output"
	}
	if op.Name == "repair-xml" {
		base += ".repaired"
	}
	return base + op.Extension
}
