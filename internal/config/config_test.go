package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultUploadsDir, cfg.UploadsDir)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultSpeechBaseURL, cfg.Speech.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Speech.PollInterval)
	assert.Equal(t, 3, cfg.Speech.MaxAttempts)
	assert.Equal(t, int64(25*1024*1024), cfg.Speech.MaxUploadBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9999"
uploads_dir: /tmp/meetpulse-uploads
allowed_origins:
  - http://localhost:5173
jwt_secret: file-secret
speech:
  api_key: file-key
  poll_interval: 500ms
  max_attempts: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "/tmp/meetpulse-uploads", cfg.UploadsDir)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "file-key", cfg.Speech.APIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Speech.PollInterval)
	assert.Equal(t, 5, cfg.Speech.MaxAttempts)

	// Values absent from the file keep their defaults.
	assert.Equal(t, DefaultSpeechBaseURL, cfg.Speech.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9999\"\n"), 0o600))

	t.Setenv("MEETPULSE_LISTEN_ADDR", ":7777")
	t.Setenv("MEETPULSE_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MEETPULSE_ASSEMBLYAI_API_KEY", "env-key")
	t.Setenv("MEETPULSE_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "env-key", cfg.Speech.APIKey)
	assert.True(t, cfg.LogJSON)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"empty uploads dir", func(c *Config) { c.UploadsDir = "" }},
		{"zero attempts", func(c *Config) { c.Speech.MaxAttempts = 0 }},
		{"zero poll interval", func(c *Config) { c.Speech.PollInterval = 0 }},
		{"zero upload cap", func(c *Config) { c.Speech.MaxUploadBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
