package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestDefaultBackendOrder(t *testing.T) {
	cfg := DefaultConfig()
	want := []string{"static", "saved_html", "rendered"}
	if strings.Join(cfg.Extraction.Backends, ",") != strings.Join(want, ",") {
		t.Fatalf("backends = %v, want %v", cfg.Extraction.Backends, want)
	}
	if cfg.Extraction.Multipliers["static"] != 3 || cfg.Extraction.Multipliers["rendered"] != 1 {
		t.Errorf("unexpected multipliers: %v", cfg.Extraction.Multipliers)
	}
	if len(cfg.Quality.Keywords) != 26 {
		t.Errorf("expected 26 default keywords, got %d", len(cfg.Quality.Keywords))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Extraction.Backends = []string{"static", "spider"} }},
		{"duplicate backend", func(c *Config) { c.Extraction.Backends = []string{"static", "static"} }},
		{"no backends", func(c *Config) { c.Extraction.Backends = nil }},
		{"zero multiplier", func(c *Config) { c.Extraction.Multipliers["static"] = 0 }},
		{"threshold too high", func(c *Config) { c.Quality.Threshold = 11 }},
		{"bad endpoint", func(c *Config) { c.Annotation.Endpoint = "ftp://x" }},
		{"no attempts", func(c *Config) { c.Annotation.MaxAttempts = 0 }},
		{"bad format", func(c *Config) { c.Storage.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestMockEndpointSkipsURLValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Annotation.Endpoint = "MOCK"
	if !cfg.Annotation.IsMock() {
		t.Fatal("MOCK should select the mock annotator")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("mock endpoint should validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsharvest.yaml")
	yaml := `
quality:
  threshold: 5
annotation:
  endpoint: mock
  timeout: 15s
extraction:
  backends: [static, rendered]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(APIKeyEnv, "secret-key")
	t.Setenv("NEWSHARVEST_ANNOTATION_MODEL", "tiny-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality.Threshold != 5 {
		t.Errorf("threshold = %d, want 5", cfg.Quality.Threshold)
	}
	if !cfg.Annotation.IsMock() {
		t.Errorf("endpoint = %q, want mock", cfg.Annotation.Endpoint)
	}
	if cfg.Annotation.Timeout != 15*time.Second {
		t.Errorf("timeout = %s, want 15s", cfg.Annotation.Timeout)
	}
	if cfg.Annotation.APIKey != "secret-key" {
		t.Errorf("api key not read from %s", APIKeyEnv)
	}
	if cfg.Annotation.Model != "tiny-model" {
		t.Errorf("model = %q, want env override", cfg.Annotation.Model)
	}
	if len(cfg.Extraction.Backends) != 2 {
		t.Errorf("backends = %v", cfg.Extraction.Backends)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
