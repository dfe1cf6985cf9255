package reporting

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/redmonkez12/whisper-api/internal/config"
	"github.com/redmonkez12/whisper-api/internal/logging"
)

// Reporter receives unexpected failures.
type Reporter interface {
	CaptureException(err error)
}

// SentryService forwards errors to Sentry. It is a no-op when SENTRY_DSN is
// empty or initialization fails.
type SentryService struct {
	initialized bool
}

func NewSentryService(cfg config.SentryConfig, logger *logging.Logger) *SentryService {
	if cfg.DSN == "" {
		logger.Info("SENTRY_DSN not set, error reporting disabled")
		return &SentryService{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		logger.Error("sentry initialization failed", "error", err.Error())
		return &SentryService{}
	}

	logger.Info("sentry initialized", "environment", cfg.Environment)
	return &SentryService{initialized: true}
}

func (s *SentryService) Enabled() bool {
	return s.initialized
}

func (s *SentryService) CaptureException(err error) {
	if !s.initialized || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// Flush waits for buffered events.
func (s *SentryService) Flush(timeout time.Duration) bool {
	if !s.initialized {
		return true
	}
	return sentry.Flush(timeout)
}

func (s *SentryService) Close() {
	s.Flush(2 * time.Second)
}

// Recoverer reports panics and re-panics so the outer recoverer can answer
// the request.
func (s *SentryService) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if s.initialized {
					hub := sentry.CurrentHub().Clone()
					hub.Scope().SetRequest(r)
					hub.Recover(rec)
				}
				panic(rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Nop discards everything.
type Nop struct{}

func (Nop) CaptureException(error) {}
