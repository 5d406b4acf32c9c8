// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SCRAPER_PACE_INTERVAL=3s.
const EnvPrefix = "SCRAPER"

// Config holds scraper configuration.
type Config struct {
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
	PaceInterval   time.Duration `mapstructure:"pace_interval"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	BatchName      string        `mapstructure:"batch_name"`
	TargetsFile    string        `mapstructure:"targets_file"`
	OutputDir      string        `mapstructure:"output_dir"`
	GCSBucket      string        `mapstructure:"gcs_bucket"`
	GCSPrefix      string        `mapstructure:"gcs_prefix"`
	CacheSize      int           `mapstructure:"cache_size"`
	CSVSummary     bool          `mapstructure:"csv_summary"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
	LogDevelopment bool          `mapstructure:"log_development"`
}

// DefaultConfig returns defaults tuned for the health & wellness product run.
func DefaultConfig() *Config {
	return &Config{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "en-CA,en-US;q=0.9,en;q=0.8",
		Timeout:        15 * time.Second,
		MaxRetries:     0,
		RetryBackoff:   200 * time.Millisecond,
		RetryMaxDelay:  2 * time.Second,
		PaceInterval:   2 * time.Second,
		BatchTimeout:   0,
		BatchName:      "health-wellness-products",
		OutputDir:      ".",
		CacheSize:      0,
		CSVSummary:     false,
		LogDevelopment: true,
	}
}

// NewViper returns a Viper instance seeded with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("accept_language", d.AcceptLanguage)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("retry_backoff", d.RetryBackoff)
	v.SetDefault("retry_max_delay", d.RetryMaxDelay)
	v.SetDefault("pace_interval", d.PaceInterval)
	v.SetDefault("batch_timeout", d.BatchTimeout)
	v.SetDefault("batch_name", d.BatchName)
	v.SetDefault("targets_file", d.TargetsFile)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("gcs_bucket", d.GCSBucket)
	v.SetDefault("gcs_prefix", d.GCSPrefix)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("csv_summary", d.CSVSummary)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log_development", d.LogDevelopment)
}

// Load reads the optional config file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 || c.RetryMaxDelay < 0 {
		return fmt.Errorf("retry delays cannot be negative")
	}
	if c.PaceInterval < 0 {
		return fmt.Errorf("pace interval cannot be negative")
	}
	if c.BatchTimeout < 0 {
		return fmt.Errorf("batch timeout cannot be negative")
	}
	if !ValidName(c.BatchName) {
		return fmt.Errorf("batch name %q must be filesystem-safe", c.BatchName)
	}
	if c.OutputDir == "" && c.GCSBucket == "" {
		return fmt.Errorf("output dir or gcs bucket must be set")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	return nil
}

// BatchKey is the blob key of the consolidated batch result.
func (c *Config) BatchKey() string {
	return c.BatchName + "-results.json"
}

// SummaryKey is the blob key of the optional CSV summary.
func (c *Config) SummaryKey() string {
	return c.BatchName + "-results.csv"
}
