package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveConversion(t *testing.T) {
	m := New()

	m.ObserveConversion("xml-to-json", "ok", 10*time.Millisecond, 512)
	m.ObserveConversion("xml-to-json", "ok", 20*time.Millisecond, 1024)
	m.ObserveConversion("xml-to-json", "error", time.Millisecond, 10)

	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("xml-to-json", "ok")); got != 2 {
		t.Errorf("ok conversions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("xml-to-json", "error")); got != 1 {
		t.Errorf("error conversions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.conversionDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestMetrics_ObserveValidation(t *testing.T) {
	m := New()

	m.ObserveValidation("json", "invalid", 3, 1)
	m.ObserveValidation("json", "valid", 0, 0)

	if got := testutil.ToFloat64(m.validationIssues.WithLabelValues("json", "error")); got != 3 {
		t.Errorf("error issues = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.validationIssues.WithLabelValues("json", "warning")); got != 1 {
		t.Errorf("warning issues = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.validationsTotal.WithLabelValues("json", "valid")); got != 1 {
		t.Errorf("valid runs = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.ObserveConversion("x", "ok", time.Second, 1)
	m.ObserveValidation("json", "valid", 1, 1)
	m.Rejected("limiter")
	m.ArtifactsPurged(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil Handler status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Rejected("too_large")
	m.ArtifactsPurged(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`transcode_rejected_total{reason="too_large"} 1`,
		`transcode_store_artifacts_purged_total 2`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
