package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentBot, Format: "json", Output: &buf})

	logger.WithFields(NewFields().WithUser(42).WithError(errors.New("boom"))).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, ComponentBot, line[FieldComponent])
	assert.EqualValues(t, 42, line[FieldUserID])
	assert.Equal(t, "boom", line[FieldError])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFieldsSkipNilError(t *testing.T) {
	f := NewFields().WithError(nil).WithExpense(0, 1250, "Food")
	assert.NotContains(t, f, FieldError)
	assert.NotContains(t, f, FieldExpenseID)
	assert.Equal(t, int64(1250), f[FieldAmountCents])
}

func TestFieldsOperation(t *testing.T) {
	f := NewFields().WithOperation(OpDelete).WithExpenseID(9)
	assert.Equal(t, OpDelete, f[FieldOperation])
	assert.Equal(t, int64(9), f[FieldExpenseID])
	assert.Len(t, f.ToSlice(), 4)
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	assert.Equal(t, "unknown", fallback.Component())

	logger := New(Config{Component: ComponentTelegram, Output: &bytes.Buffer{}})
	got := FromContext(NewContext(context.Background(), logger))
	assert.Same(t, logger, got)
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})

	var seen *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.NotNil(t, seen)
	assert.Equal(t, ComponentHTTP, seen.Component())
	assert.Contains(t, buf.String(), "status_code=418")
	assert.Contains(t, buf.String(), "path=/healthz")
}
