package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/logging"
	"github.com/aluiziolira/go-scrape-products/scraper"
)

// flagKeys maps CLI flags to config keys.
var flagKeys = map[string]string{
	"output-dir":    "output_dir",
	"timeout":       "timeout",
	"retries":       "max_retries",
	"cache-size":    "cache_size",
	"metrics-addr":  "metrics_addr",
	"dev-log":       "log_development",
	"targets":       "targets_file",
	"pace":          "pace_interval",
	"batch-name":    "batch_name",
	"batch-timeout": "batch_timeout",
	"csv-summary":   "csv_summary",
	"gcs-bucket":    "gcs_bucket",
	"gcs-prefix":    "gcs_prefix",
}

// app carries state shared by subcommands.
type app struct {
	cfgFile   string
	stdout    io.Writer
	stderr    io.Writer
	cfg       *config.Config
	logger    *zap.Logger
	transport http.RoundTripper
}

func newApp() *app {
	return &app{stdout: os.Stdout, stderr: os.Stderr}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Extract structured product records from retail product pages",
		Long: `scraper fetches retail product pages and extracts title, price, rating,
review count, bullet points, description, images, ASIN and brand.

Run a single page with "extract" or a fixed target list with "batch".`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("output-dir", "", "directory for result files")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Int("retries", 0, "retry attempts for timeouts, connection errors, 429 and 5xx")
	flags.Int("cache-size", 0, "response cache entries (0 disables)")
	flags.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.Bool("dev-log", false, "human-readable debug logging")

	cmd.AddCommand(newExtractCmd(a), newBatchCmd(a), newSlugCmd(a))
	return cmd
}

// init loads configuration and the logger for the executing command.
func (a *app) init(cmd *cobra.Command) error {
	// Arguments are valid by now; later failures are not usage errors.
	cmd.SilenceUsage = true
	if cmd.Annotations["skip-config"] == "true" {
		return nil
	}
	v := config.NewViper()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// newScraper builds a scraper from the loaded config.
func (a *app) newScraper() (*scraper.Scraper, error) {
	s, err := scraper.NewScraper(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if a.transport != nil {
		s.Fetcher().WithTransport(a.transport)
	}
	return s, nil
}

// serveMetrics exposes registry on the configured address until the returned
// function is called. It is a no-op when no address is configured.
func (a *app) serveMetrics(registry *prometheus.Registry) func() {
	if a.cfg.MetricsAddr == "" || registry == nil {
		return func() {}
	}
	server := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.logger.Info("metrics server enabled", zap.String("addr", a.cfg.MetricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
}
