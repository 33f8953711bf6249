package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/observability"
)

var (
	cfgFile string
	verbose bool
)

// app holds what every subcommand shares once setup has run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	runID   string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsharvest",
		Short: "NewsHarvest: news article extraction and annotation",
		Long: `NewsHarvest collects articles from news homepages and annotates them.

Stages:
  scrape   discover and extract articles through a fallback chain of
           backends (static, saved_html, rendered)
  process  deduplicate, score quality, and label sentiment, summary and
           relevance through a chat-completion endpoint (or "mock")
  run      scrape followed by process`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env and configuration, applies flag overrides, validates the
// result and builds the logger.
func setup(overrides ...func(*config.Config)) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()
	logger := setupLogger(cfg.Logging).With("run_id", runID)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(logger),
		runID:   runID,
	}, nil
}

// startMetrics serves the registry until ctx ends, when enabled.
func (a *app) startMetrics(ctx context.Context) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	if err := a.metrics.StartServer(ctx, a.cfg.Metrics.Port, a.cfg.Metrics.Path); err != nil {
		a.logger.Warn("failed to start metrics server", "error", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsHarvest %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Extraction:\n")
			fmt.Printf("  Backends:          %s\n", strings.Join(cfg.Extraction.Backends, " → "))
			for _, name := range cfg.Extraction.Backends {
				fmt.Printf("  Multiplier %-8s %d\n", name+":", cfg.Extraction.Multipliers[name])
			}
			fmt.Printf("  HTML Dir:          %s\n", cfg.Extraction.HTMLDir)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Browser.Enabled)
			fmt.Printf("  Page Timeout:      %s\n", cfg.Browser.PageTimeout)
			fmt.Printf("\nQuality:\n")
			fmt.Printf("  Threshold:         %d\n", cfg.Quality.Threshold)
			fmt.Printf("  Keywords:          %d configured\n", len(cfg.Quality.Keywords))
			fmt.Printf("\nAnnotation:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.Annotation.Endpoint)
			fmt.Printf("  Model:             %s\n", cfg.Annotation.Model)
			fmt.Printf("  API Key:           %s\n", maskKey(cfg.Annotation.APIKey))
			fmt.Printf("  Max Attempts:      %d\n", cfg.Annotation.MaxAttempts)
			fmt.Printf("  Min Interval:      %s\n", cfg.Annotation.MinInterval)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Data Dir:          %s\n", cfg.Storage.DataDir)
			fmt.Printf("  Processed Output:  %s\n", cfg.Storage.ProcessedOutput)
			fmt.Printf("  Format:            %s\n", cfg.Storage.Format)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.MongoURI != "")
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
