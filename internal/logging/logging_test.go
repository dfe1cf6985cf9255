package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerStoresLoggerAndLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false)

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil))

	require.NotNil(t, fromCtx)
	assert.NotSame(t, logger, fromCtx)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "/api/users/ghost", entry["path"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestGetLoggerFromContextFallsBack(t *testing.T) {
	l := GetLoggerFromContext(context.Background())
	require.NotNil(t, l)
	require.NotNil(t, l.Logger)
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false).WithFields(map[string]any{"user_id": "u1"})
	logger.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "u1", entry["user_id"])
}
