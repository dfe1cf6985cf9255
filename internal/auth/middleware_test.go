package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/whisper-api/internal/httputil"
)

func TestRequireAuth(t *testing.T) {
	svc, err := NewJWTService([]byte("mw-secret"))
	require.NoError(t, err)

	valid, err := svc.CreateToken("user-1", "alice")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return past }
	expired, err := svc.CreateToken("user-1", "alice")
	require.NoError(t, err)
	svc.now = time.Now

	var seen *Claims
	handler := NewMiddleware(svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, ""},
		{"missing", "", http.StatusForbidden, httputil.MsgAccessDenied},
		{"no token", "Bearer ", http.StatusForbidden, httputil.MsgAccessDenied},
		{"wrong scheme", "Basic " + valid, http.StatusForbidden, httputil.MsgAccessDenied},
		{"garbage", "Bearer abc.def.ghi", http.StatusForbidden, httputil.MsgAccessDenied},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, httputil.MsgSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				require.NotNil(t, seen)
				assert.Equal(t, "user-1", seen.UserID)
				assert.Equal(t, "alice", seen.Username)
				return
			}

			assert.Nil(t, seen)
			var body httputil.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}
