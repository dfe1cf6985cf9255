package reporting

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/whisper-api/internal/config"
	"github.com/redmonkez12/whisper-api/internal/logging"
)

func TestSentryServiceDisabledWithoutDSN(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerTo(&buf, false)

	s := NewSentryService(config.SentryConfig{Environment: "test"}, logger)
	assert.False(t, s.Enabled())
	assert.Contains(t, buf.String(), "error reporting disabled")

	assert.NotPanics(t, func() {
		s.CaptureException(errors.New("boom"))
		s.CaptureException(nil)
		s.Close()
	})
	assert.True(t, s.Flush(time.Millisecond))
}

func TestSentryServiceInvalidDSNStaysDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerTo(&buf, false)

	s := NewSentryService(config.SentryConfig{DSN: "::not a dsn::"}, logger)
	assert.False(t, s.Enabled())
	assert.Contains(t, buf.String(), "sentry initialization failed")
}

func TestRecovererRepanics(t *testing.T) {
	s := &SentryService{}
	h := s.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	assert.PanicsWithValue(t, "kaboom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecovererPassesThrough(t *testing.T) {
	s := &SentryService{}
	h := s.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestNopReporter(t *testing.T) {
	var r Reporter = Nop{}
	assert.NotPanics(t, func() { r.CaptureException(errors.New("ignored")) })
}
