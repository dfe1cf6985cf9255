package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_TOKEN_STRATEGY", "jwt")
	t.Setenv("JWT_SECRET", "whisperctl-test-secret")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenIssueThenInspect(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "token", "issue", "--id", "665f1c2e8b3a4d0012345678", "--username", "alice")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = execute(t, "token", "inspect", token)
	require.NoError(t, err)

	var claims struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	assert.Equal(t, "665f1c2e8b3a4d0012345678", claims.ID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenInspect_RejectsGarbage(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "token", "inspect", "not-a-token")
	assert.Error(t, err)
}

func TestTokenIssue_RequiresID(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "token", "issue", "--username", "alice")
	assert.Error(t, err)
}

func TestIndexes_MemoryStore(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "indexes")
	require.NoError(t, err)
	assert.Contains(t, out, "users.email unique=true sparse=false")
	assert.Contains(t, out, "users.username unique=true sparse=true")
	assert.Contains(t, out, "messages.toUserId unique=false sparse=false")
}
