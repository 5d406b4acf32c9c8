package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty user agent",
			mutate: func(cfg *Config) {
				cfg.UserAgent = " "
			},
			wantErr: "user agent",
		},
		{
			name: "zero timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = 0
			},
			wantErr: "timeout",
		},
		{
			name: "negative retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = -1
			},
			wantErr: "max retries",
		},
		{
			name: "negative retry backoff",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = -time.Millisecond
			},
			wantErr: "retry delays",
		},
		{
			name: "negative pace interval",
			mutate: func(cfg *Config) {
				cfg.PaceInterval = -1 * time.Second
			},
			wantErr: "pace interval",
		},
		{
			name: "negative batch timeout",
			mutate: func(cfg *Config) {
				cfg.BatchTimeout = -1
			},
			wantErr: "batch timeout",
		},
		{
			name: "unsafe batch name",
			mutate: func(cfg *Config) {
				cfg.BatchName = "../escape"
			},
			wantErr: "batch name",
		},
		{
			name: "no output destination",
			mutate: func(cfg *Config) {
				cfg.OutputDir = ""
			},
			wantErr: "output dir",
		},
		{
			name: "negative cache size",
			mutate: func(cfg *Config) {
				cfg.CacheSize = -5
			},
			wantErr: "cache size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.PaceInterval != 2*time.Second {
		t.Fatalf("pace interval = %v, want 2s", cfg.PaceInterval)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("timeout = %v, want 15s", cfg.Timeout)
	}
	if got := cfg.BatchKey(); got != "health-wellness-products-results.json" {
		t.Fatalf("batch key = %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchName != DefaultConfig().BatchName {
		t.Fatalf("batch name = %q", cfg.BatchName)
	}
	if cfg.PaceInterval != 2*time.Second {
		t.Fatalf("pace interval = %v", cfg.PaceInterval)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraper.yaml")
	content := "pace_interval: 500ms\nbatch_name: kitchen\ncsv_summary: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCRAPER_CACHE_SIZE", "32")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PaceInterval != 500*time.Millisecond {
		t.Fatalf("pace interval = %v, want 500ms", cfg.PaceInterval)
	}
	if cfg.BatchName != "kitchen" || !cfg.CSVSummary {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CacheSize != 32 {
		t.Fatalf("cache size = %d, want 32", cfg.CacheSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
