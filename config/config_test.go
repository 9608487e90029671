package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.Audio.ChunkSamples(); got != 64000 {
		t.Errorf("ChunkSamples() = %d, want 64000", got)
	}
	if got := cfg.Audio.OverlapSamples(); got != 32000 {
		t.Errorf("OverlapSamples() = %d, want 32000", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty api base",
			mutate:  func(c *Config) { c.Server.APIBase = "" },
			wantErr: true,
		},
		{
			name:    "relative api base",
			mutate:  func(c *Config) { c.Server.APIBase = "localhost:8000" },
			wantErr: true,
		},
		{
			name:    "zero send interval",
			mutate:  func(c *Config) { c.Server.SendIntervalMS = 0 },
			wantErr: true,
		},
		{
			name:    "overlap equals chunk",
			mutate:  func(c *Config) { c.Audio.OverlapSeconds = c.Audio.ChunkSeconds },
			wantErr: true,
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.Audio.OverlapSeconds = -1 },
			wantErr: true,
		},
		{
			name:   "zero overlap allowed",
			mutate: func(c *Config) { c.Audio.OverlapSeconds = 0 },
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("test relies on XDG config dir resolution")
	}

	// Point the config dir at an empty temp dir so defaults apply.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIBase, "http://backend.example:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIBase != "http://backend.example:9000" {
		t.Errorf("APIBase = %q, want env override", cfg.Server.APIBase)
	}
}

func TestLoadFromFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("test relies on XDG config dir resolution")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvAPIBase, "")

	appDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	data := []byte(`{
		"server": {
			"api_base": "http://filehost:8000",
			"send_interval_ms": 500,
			"poll_interval_ms": 2000,
			"request_timeout_ms": 5000
		},
		"audio": {
			"sample_rate": 8000,
			"chunk_seconds": 2,
			"overlap_seconds": 1,
			"frames_per_buffer": 512
		},
		"log_level": "debug"
	}`)
	if err := os.WriteFile(filepath.Join(appDir, configFileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIBase != "http://filehost:8000" {
		t.Errorf("APIBase = %q", cfg.Server.APIBase)
	}
	if cfg.Audio.ChunkSamples() != 16000 {
		t.Errorf("ChunkSamples() = %d, want 16000", cfg.Audio.ChunkSamples())
	}
}
