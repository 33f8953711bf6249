package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/newsharvest/internal/config"
)

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(file, []byte("- url: https://a.example.com\n  count: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sourcesFile = file
	t.Cleanup(func() { sourcesFile = "" })

	sources, err := collectSources([]string{"https://b.example.com=4"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[1].URL != "https://b.example.com" || sources[1].Count != 4 {
		t.Errorf("unexpected argument source: %+v", sources[1])
	}
}

func TestCollectSourcesRequiresInput(t *testing.T) {
	sourcesFile = ""
	if _, err := collectSources(nil); err == nil {
		t.Fatal("expected an error with no sources")
	}
}

func TestSetupLoggerLevels(t *testing.T) {
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}

	verbose = true
	t.Cleanup(func() { verbose = false })
	logger = setupLogger(config.LoggingConfig{Level: "error"})
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("--verbose should force debug")
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":            "(not set)",
		"abc":         "****",
		"sk-1234abcd": "****abcd",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcessOverrides(t *testing.T) {
	llmEndpoint, llmModel, llmKey, outputPath = "mock", "tiny", "k", "out/p.json"
	t.Cleanup(func() { llmEndpoint, llmModel, llmKey, outputPath = "", "", "", "" })

	cfg := config.DefaultConfig()
	processOverrides(cfg)
	if !cfg.Annotation.IsMock() || cfg.Annotation.Model != "tiny" || cfg.Annotation.APIKey != "k" {
		t.Errorf("annotation overrides not applied: %+v", cfg.Annotation)
	}
	if cfg.Storage.ProcessedOutput != "out/p.json" {
		t.Errorf("output = %q", cfg.Storage.ProcessedOutput)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("overridden config should validate: %v", err)
	}
}

func TestDefaultInputPicksNewestRawFile(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.DataDir = t.TempDir()

	if _, err := defaultInput(cfg, ""); err == nil {
		t.Error("expected an error when no raw file exists")
	}

	for _, name := range []string{"article_data1.json", "article_data3.json"} {
		if err := os.WriteFile(filepath.Join(cfg.DataDir, name), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := defaultInput(cfg, "")
	if err != nil {
		t.Fatalf("defaultInput: %v", err)
	}
	if want := filepath.Join(cfg.DataDir, "article_data3.json"); got != want {
		t.Errorf("defaultInput = %q, want %q", got, want)
	}
	if got, _ := defaultInput(cfg, "explicit.json"); got != "explicit.json" {
		t.Errorf("--input should win, got %q", got)
	}
}
