// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	appName        = "knowledgeos"
	configFileName = "config.json"

	// EnvAPIBase overrides Server.APIBase when set.
	EnvAPIBase = "KNOWLEDGEOS_API_BASE"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Audio   AudioConfig   `json:"audio"`
	Metrics MetricsConfig `json:"metrics"`
	Storage StorageConfig `json:"storage"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level"`
}

// ServerConfig describes how to reach the backend.
type ServerConfig struct {
	// APIBase is the backend base URL, e.g. "http://localhost:8000".
	APIBase string `json:"api_base"`
	// SendIntervalMS is the minimum spacing between audio uploads.
	SendIntervalMS int `json:"send_interval_ms"`
	// PollIntervalMS is the spacing between status polls.
	PollIntervalMS int `json:"poll_interval_ms"`
	// RequestTimeoutMS bounds each HTTP request.
	RequestTimeoutMS int `json:"request_timeout_ms"`
}

// AudioConfig describes capture and chunking parameters.
type AudioConfig struct {
	SampleRate     int     `json:"sample_rate"`
	ChunkSeconds   float64 `json:"chunk_seconds"`
	OverlapSeconds float64 `json:"overlap_seconds"`
	// FramesPerBuffer is the device callback block size in samples.
	FramesPerBuffer int `json:"frames_per_buffer"`
}

// MetricsConfig describes the optional Prometheus listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics, e.g. "localhost:9100".
	// Empty disables the listener.
	Addr string `json:"addr,omitempty"`
}

// StorageConfig describes the local database.
type StorageConfig struct {
	// Path overrides the database directory. Empty uses the
	// per-user config directory.
	Path string `json:"path,omitempty"`
	// HistoryTTLHours bounds how long transcripts are retained.
	HistoryTTLHours int `json:"history_ttl_hours"`
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
// KNOWLEDGEOS_API_BASE, when set, wins over the file value.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// First run, defaults apply.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if base := os.Getenv(EnvAPIBase); base != "" {
		cfg.Server.APIBase = base
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Storage.HistoryTTLHours < 0 {
		return fmt.Errorf("storage: history ttl must not be negative")
	}
	return nil
}

// Validate checks the server section.
func (s *ServerConfig) Validate() error {
	if s.APIBase == "" {
		return fmt.Errorf("api base required")
	}
	u, err := url.Parse(s.APIBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base must be an absolute URL: %q", s.APIBase)
	}
	if s.SendIntervalMS <= 0 {
		return fmt.Errorf("send interval must be positive")
	}
	if s.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if s.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// Validate checks the audio section.
func (a *AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if a.ChunkSeconds <= 0 {
		return fmt.Errorf("chunk duration must be positive")
	}
	if a.OverlapSeconds < 0 || a.OverlapSeconds >= a.ChunkSeconds {
		return fmt.Errorf("overlap must be in [0, chunk), got %v with chunk %v",
			a.OverlapSeconds, a.ChunkSeconds)
	}
	if a.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames per buffer must be positive")
	}
	return nil
}

// SendInterval returns the upload spacing as a duration.
func (s *ServerConfig) SendInterval() time.Duration {
	return time.Duration(s.SendIntervalMS) * time.Millisecond
}

// PollInterval returns the status poll spacing as a duration.
func (s *ServerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-request bound as a duration.
func (s *ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// ChunkSamples returns the chunk length in samples.
func (a *AudioConfig) ChunkSamples() int {
	return int(a.ChunkSeconds * float64(a.SampleRate))
}

// OverlapSamples returns the overlap length in samples.
func (a *AudioConfig) OverlapSamples() int {
	return int(a.OverlapSeconds * float64(a.SampleRate))
}

// HistoryTTL returns the transcript retention as a duration.
func (s *StorageConfig) HistoryTTL() time.Duration {
	return time.Duration(s.HistoryTTLHours) * time.Hour
}

// DataDir returns the directory for the local database, creating it
// if needed.
func (s *StorageConfig) DataDir() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, "data"), nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			APIBase:          "http://localhost:8000",
			SendIntervalMS:   1000,
			PollIntervalMS:   3000,
			RequestTimeoutMS: 10000,
		},
		Audio: AudioConfig{
			SampleRate:      16000,
			ChunkSeconds:    4,
			OverlapSeconds:  2,
			FramesPerBuffer: 1024,
		},
		Storage: StorageConfig{
			HistoryTTLHours: 72,
		},
		LogLevel: "info",
	}
}
