package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGODB_CONNECTION_STRING", "mongodb://localhost:27017")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "whisper", cfg.Store.DBName)
	assert.Equal(t, "jwt", cfg.Auth.TokenStrategy)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordHash)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.Empty(t, cfg.Server.TrustedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_NAME", "anon")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("TRUSTED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
	assert.False(t, cfg.Server.IsDevelopment())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.TrustedOrigins)
	assert.Equal(t,
		"host=pg port=5432 user=postgres password=postgres dbname=anon sslmode=disable",
		cfg.Store.ConnectionString())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"short paseto key", map[string]string{"AUTH_TOKEN_STRATEGY": "paseto", "PASETO_KEY": "short"}},
		{"unknown strategy", map[string]string{"AUTH_TOKEN_STRATEGY": "saml"}},
		{"unknown hash", map[string]string{"PASSWORD_HASH": "md5"}},
		{"mongo without uri", map[string]string{"MONGODB_CONNECTION_STRING": ""}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"bad rate limit", map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_REQUESTS": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadIgnoresRateLimitWhenDisabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RATE_LIMIT_REQUESTS", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadPasetoStrategy(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_TOKEN_STRATEGY", "paseto")
	t.Setenv("PASETO_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.PasetoKey, 32)
}
