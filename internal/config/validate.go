package config

import (
	"fmt"
	"net/url"
)

var knownBackends = map[string]bool{
	"static": true, "saved_html": true, "rendered": true,
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Browser.Enabled && cfg.Browser.PageTimeout <= 0 {
		return fmt.Errorf("browser.page_timeout must be > 0")
	}

	if len(cfg.Extraction.Backends) == 0 {
		return fmt.Errorf("extraction.backends must list at least one backend")
	}
	seen := make(map[string]bool, len(cfg.Extraction.Backends))
	for _, name := range cfg.Extraction.Backends {
		if !knownBackends[name] {
			return fmt.Errorf("extraction.backends: unknown backend %q (valid: static, saved_html, rendered)", name)
		}
		if seen[name] {
			return fmt.Errorf("extraction.backends: %q listed twice", name)
		}
		seen[name] = true
	}
	for name, k := range cfg.Extraction.Multipliers {
		if k < 1 {
			return fmt.Errorf("extraction.multipliers.%s must be >= 1, got %d", name, k)
		}
	}

	if cfg.Quality.Threshold < 0 || cfg.Quality.Threshold > 10 {
		return fmt.Errorf("quality.threshold must be 0-10, got %d", cfg.Quality.Threshold)
	}

	if !cfg.Annotation.IsMock() {
		if err := ValidateURL(cfg.Annotation.Endpoint); err != nil {
			return fmt.Errorf("annotation.endpoint: %w", err)
		}
	}
	if cfg.Annotation.Model == "" {
		return fmt.Errorf("annotation.model must not be empty")
	}
	if cfg.Annotation.Timeout <= 0 {
		return fmt.Errorf("annotation.timeout must be > 0")
	}
	if cfg.Annotation.MaxAttempts < 1 {
		return fmt.Errorf("annotation.max_attempts must be >= 1, got %d", cfg.Annotation.MaxAttempts)
	}
	if cfg.Annotation.MinInterval < 0 {
		return fmt.Errorf("annotation.min_interval must be >= 0")
	}

	validFormats := map[string]bool{
		"json": true, "jsonl": true, "csv": true,
	}
	if !validFormats[cfg.Storage.Format] {
		return fmt.Errorf("storage.format %q is not supported (valid: json, jsonl, csv)", cfg.Storage.Format)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that a URL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
