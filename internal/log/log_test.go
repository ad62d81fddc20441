package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentStore, Output: &buf})

	logger.Info("state changed", FieldSlice, "transactions")
	logger.WithComponent(ComponentHTTP).Warn("slow")

	out := buf.String()
	if !strings.Contains(out, "component=store") || !strings.Contains(out, "slice=transactions") {
		t.Errorf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=http") {
		t.Errorf("component override missing in %q", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Errorf("component logged more than once per line: %q", out)
	}
}

func TestLogFieldsToSliceIsSorted(t *testing.T) {
	got := NewFields().WithOperation("update").WithError(errors.New("boom")).WithComponent("store").ToSlice()
	want := []any{FieldComponent, "store", FieldError, "boom", FieldOperation, "update"}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("handled")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id missing in %q", buf.String())
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)

	sl.LogHTTPEnd(context.Background(), r, 404, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, 500, 3, "1.2.3.4")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("unexpected levels in %q", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}
