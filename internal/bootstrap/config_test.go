package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { SetLogLevel("info") })

	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			SetLogLevel(tt.in)
			assert.Equal(t, tt.want, logLevel.Level())
		})
	}
}

func TestInitLogger_FollowsLevel(t *testing.T) {
	t.Cleanup(func() { SetLogLevel("info") })

	logger := InitLogger()
	SetLogLevel("error")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	SetLogLevel("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/api/v1/")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("AUTH_IDENTITY_STRATEGY", "claims")
	t.Setenv("AUTH_TOKEN_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.EqualValues(t, "claims", cfg.Auth.IdentityStrategy)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "relative api url", key: "API_BASE_URL", val: "/api"},
		{name: "public suffix cookie domain", key: "APP_COOKIE_DOMAIN", val: "co.uk"},
		{name: "unknown strategy", key: "AUTH_IDENTITY_STRATEGY", val: "ldap"},
		{name: "claims without secret", key: "AUTH_IDENTITY_STRATEGY", val: "claims"},
		{name: "bad duration", key: "AUTH_ACCESS_TTL", val: "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
