package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/docstore"
	"github.com/redmonkez12/whisper-api/internal/httputil"
	"github.com/redmonkez12/whisper-api/internal/ratelimit"
)

type captureReporter struct {
	errs []error
}

func (c *captureReporter) CaptureException(err error) {
	c.errs = append(c.errs, err)
}

func doJSON(t *testing.T, h http.HandlerFunc, body any, claims *auth.Claims) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.RemoteAddr = "203.0.113.7:5555"
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandlerLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw123")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter, err := ratelimit.NewLimiter(client, 2, time.Minute)
	require.NoError(t, err)

	h := NewHandler(env.service, limiter, nil)
	creds := LoginRequest{Email: "alice@x.com", Password: "pw123"}

	for i := 0; i < 2; i++ {
		rec, resp := doJSON(t, h.Login, creds, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, resp.Token)
	}

	rec, resp := doJSON(t, h.Login, creds, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.MsgTooManyRequests, resp.Error)
}

func TestHandlerRateLimiterFailsOpen(t *testing.T) {
	env := newTestEnv(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	limiter, err := ratelimit.NewLimiter(client, 1, time.Minute)
	require.NoError(t, err)
	mr.Close()

	h := NewHandler(env.service, limiter, nil)
	rec, resp := doJSON(t, h.Create, RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httputil.MsgRegistrationSuccessful, resp.Message)
}

func TestHandlerStatusMapping(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "alice@x.com", "pw123")
	h := NewHandler(env.service, nil, nil)
	self := &auth.Claims{UserID: alice.ID, Username: "alice"}
	ghost := &auth.Claims{UserID: "ghost", Username: "ghost"}

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		body       any
		claims     *auth.Claims
		wantStatus int
		wantError  string
	}{
		{"register missing fields", h.Create, RegisterInput{Email: "b@x.com"}, nil, http.StatusBadRequest, httputil.MsgRequiredFields},
		{"register duplicate", h.Create, RegisterInput{Username: "alice", Email: "z@x.com", Password: "pw"}, nil, http.StatusInternalServerError,
			"Duplicate key error: There is already an account with that information."},
		{"register invalid profile", h.Create, RegisterInput{Username: "b", Email: "b@x.com", Password: "pw", Gender: "x"}, nil, http.StatusBadRequest, httputil.MsgInvalidProfile},
		{"login unknown", h.Login, LoginRequest{Email: "no@x.com", Password: "pw"}, nil, http.StatusNotFound, httputil.MsgUserNotFound},
		{"login wrong password", h.Login, LoginRequest{Email: "alice@x.com", Password: "bad"}, nil, http.StatusBadRequest, httputil.MsgWrongPassword},
		{"change password mismatch", h.ChangePassword, ChangePasswordRequest{NewPassword: "a", NewPasswordRepeat: "b"}, self, http.StatusBadRequest, httputil.MsgPasswordMismatch},
		{"change password too long", h.ChangePassword, ChangePasswordRequest{NewPassword: strings.Repeat("p", 73), NewPasswordRepeat: strings.Repeat("p", 73)}, self, http.StatusBadRequest, httputil.MsgPasswordTooLong},
		{"change password ghost", h.ChangePassword, ChangePasswordRequest{NewPassword: "a", NewPasswordRepeat: "a"}, ghost, http.StatusNotFound, httputil.MsgUserNotFound},
		{"update without claims", h.Update, ProfileUpdate{}, nil, http.StatusForbidden, httputil.MsgAccessDenied},
		{"update ghost", h.Update, ProfileUpdate{Location: ptr("x")}, ghost, http.StatusNotFound, httputil.MsgUserNotFound},
		{"delete ghost", h.Delete, nil, ghost, http.StatusNotFound, httputil.MsgUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, tt.handler, tt.body, tt.claims)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.service, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), httputil.MsgInvalidRequestBody)
}

type failingStore struct {
	*docstore.MemoryStore
}

func (failingStore) FindOne(_ context.Context, _ string, _ docstore.Filter) (bson.Raw, error) {
	return nil, &docstore.Error{Op: "find", Code: docstore.CodeNotPrimary, Err: errors.New("stepped down")}
}

func TestHandlerReportsStoreFailures(t *testing.T) {
	tokens, err := auth.NewJWTService([]byte("secret"))
	require.NoError(t, err)
	svc := NewService(NewRepository(failingStore{docstore.NewMemoryStore()}), auth.NewBcryptHasher(), tokens)

	reporter := &captureReporter{}
	h := NewHandler(svc, nil, reporter)

	rec, resp := doJSON(t, h.Login, LoginRequest{Email: "a@x.com", Password: "pw"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Not master: The operation cannot be performed because this node is not the primary.", resp.Error)
	require.Len(t, reporter.errs, 1)
	assert.Equal(t, docstore.CodeNotPrimary, docstore.CodeOf(reporter.errs[0]))
}
