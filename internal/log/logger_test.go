package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	logger.Info("Budget set", FieldCategoryID, int64(3))
	logger.Debug("hidden")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentLedger)
	}
	if entry[FieldCategoryID] != float64(3) {
		t.Errorf("category_id = %v, want 3", entry[FieldCategoryID])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Component: ComponentApp, Output: &buf}).WithComponent(ComponentWorker)

	logger.Warn("Duplicate budget alert ignored")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Errorf("expected worker component in %q", buf.String())
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("Component() = %s", logger.Component())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "text", Component: ComponentHTTP, Output: &buf})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request id in %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected unknown component for bare context")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: "text", Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusNotFound, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected WARN for 404, got %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "Report failed", errors.New("boom"), ComponentReports, OpReport, nil)
	if !strings.Contains(buf.String(), "error=boom") || !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
