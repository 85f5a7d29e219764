// Package config loads server configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr     = ":8080"
	DefaultUploadsDir     = "uploads"
	DefaultLogLevel       = "info"
	DefaultSpeechBaseURL  = "https://api.assemblyai.com/v2"
	DefaultPollInterval   = 2 * time.Second
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultMaxAttempts    = 3
	DefaultMaxUploadBytes = 25 * 1024 * 1024
	DefaultTokenTTL       = 7 * 24 * time.Hour
)

// SpeechConfig holds settings for the external speech-processing
// service and the pipeline built around it.
type SpeechConfig struct {
	// APIKey authenticates against the speech service.
	APIKey string `yaml:"api_key"`

	// BaseURL is the service's API root.
	BaseURL string `yaml:"base_url"`

	// PollInterval is the pause between job status polls.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RetryBaseDelay is the unit of the linear backoff between
	// submit+poll attempts.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	// MaxAttempts bounds submit+poll retries.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxUploadBytes caps accepted audio uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// UploadsDir is where audio artifacts are stored.
	UploadsDir string `yaml:"uploads_dir"`

	// AllowedOrigins lists origins accepted by the CORS middleware and
	// the websocket upgrader. Empty means same-origin tools only.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches from console to JSON log output.
	LogJSON bool `yaml:"log_json"`

	// JWTSecret signs issued tokens.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// DatabaseURL is the Postgres connection string. When empty the
	// server falls back to the in-memory store.
	DatabaseURL string `yaml:"database_url"`

	Speech SpeechConfig `yaml:"speech"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		UploadsDir: DefaultUploadsDir,
		LogLevel:   DefaultLogLevel,
		TokenTTL:   DefaultTokenTTL,
		Speech: SpeechConfig{
			BaseURL:        DefaultSpeechBaseURL,
			PollInterval:   DefaultPollInterval,
			RetryBaseDelay: DefaultRetryBaseDelay,
			MaxAttempts:    DefaultMaxAttempts,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// Load reads configuration from path (optional, "" skips the file),
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps MEETPULSE_* environment variables onto the
// config. Environment wins over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEETPULSE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MEETPULSE_UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
	if v := os.Getenv("MEETPULSE_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("MEETPULSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MEETPULSE_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogJSON = b
		}
	}
	if v := os.Getenv("MEETPULSE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("MEETPULSE_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("MEETPULSE_ASSEMBLYAI_API_KEY"); v != "" {
		c.Speech.APIKey = v
	}
	if v := os.Getenv("MEETPULSE_SPEECH_BASE_URL"); v != "" {
		c.Speech.BaseURL = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("uploads_dir must not be empty")
	}
	if c.Speech.MaxAttempts < 1 {
		return fmt.Errorf("speech.max_attempts must be at least 1, got %d", c.Speech.MaxAttempts)
	}
	if c.Speech.PollInterval <= 0 {
		return fmt.Errorf("speech.poll_interval must be positive")
	}
	if c.Speech.MaxUploadBytes <= 0 {
		return fmt.Errorf("speech.max_upload_bytes must be positive")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
