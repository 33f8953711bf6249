package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIKeyEnv is the environment variable holding the model endpoint credential.
const APIKeyEnv = "INS_API_KEY"

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied afterwards by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NEWSHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("annotation.api_key", "NEWSHARVEST_ANNOTATION_API_KEY", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("bind %s: %w", APIKeyEnv, err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newsharvest")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newsharvest"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)
	v.SetDefault("fetcher.respect_robots", cfg.Fetcher.RespectRobots)

	v.SetDefault("browser.enabled", cfg.Browser.Enabled)
	v.SetDefault("browser.page_timeout", cfg.Browser.PageTimeout)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)

	v.SetDefault("extraction.backends", cfg.Extraction.Backends)
	v.SetDefault("extraction.multipliers", cfg.Extraction.Multipliers)
	v.SetDefault("extraction.html_dir", cfg.Extraction.HTMLDir)
	v.SetDefault("extraction.candidate_delay", cfg.Extraction.CandidateDelay)

	v.SetDefault("quality.threshold", cfg.Quality.Threshold)
	v.SetDefault("quality.keywords", cfg.Quality.Keywords)

	v.SetDefault("annotation.endpoint", cfg.Annotation.Endpoint)
	v.SetDefault("annotation.model", cfg.Annotation.Model)
	v.SetDefault("annotation.api_key", cfg.Annotation.APIKey)
	v.SetDefault("annotation.temperature", cfg.Annotation.Temperature)
	v.SetDefault("annotation.timeout", cfg.Annotation.Timeout)
	v.SetDefault("annotation.max_attempts", cfg.Annotation.MaxAttempts)
	v.SetDefault("annotation.min_interval", cfg.Annotation.MinInterval)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.raw_base_name", cfg.Storage.RawBaseName)
	v.SetDefault("storage.processed_output", cfg.Storage.ProcessedOutput)
	v.SetDefault("storage.format", cfg.Storage.Format)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
