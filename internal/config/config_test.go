package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://graph.threads.net", cfg.Threads.BaseURL)
	assert.Equal(t, "v1.0", cfg.Threads.APIVersion)
	assert.Equal(t, 25, cfg.Analysis.PostCeiling)
	assert.Equal(t, 15, cfg.Analysis.DetailLimit)
	assert.Equal(t, 20, cfg.Analysis.OutputLimit)
	assert.Equal(t, 10, cfg.Analysis.TopCommenters)
	assert.Equal(t, time.Second, cfg.Analysis.PageInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Analysis.DetailInterval)
	assert.Equal(t, "memory", cfg.Session.Backend)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ANALYSIS_DETAIL_LIMIT", "5")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Analysis.DetailLimit)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  port: \"7000\"\nanalysis:\n  output_limit: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Analysis.OutputLimit)
}

func TestLog_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, Log{Level: in}.SlogLevel(), in)
	}
}

func TestValidate_JWTSecret(t *testing.T) {
	t.Setenv("THREADS_CLIENT_ID", "")
	// set-but-empty would override the default, so remove it for this test
	t.Setenv("SESSION_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("SESSION_JWT_SECRET"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultJWTSecret, cfg.Session.JWTSecret)

	// placeholder key is tolerated while sign-in is disabled
	assert.NoError(t, cfg.Validate())

	cfg.Threads.ClientID = "client"
	assert.ErrorIs(t, cfg.Validate(), ErrDefaultJWTSecret)

	cfg.Session.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}
