package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, true)

	logger.WithFields(map[string]any{"email": "a@x.com"}).Info("user registered", "role", "admin")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=\"user registered\"")
	assert.Contains(t, out, "email=a@x.com")
	assert.Contains(t, out, "role=admin")
}

func TestLogger_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, false)

	logger.Debug("hidden")
	logger.Warn("visible", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestGetLoggerFromContext(t *testing.T) {
	logger := Discard()
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, GetLoggerFromContext(ctx))
	assert.NotNil(t, GetLoggerFromContext(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, true)

	var fromCtx *Logger
	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.NotNil(t, fromCtx)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/missing")
}
