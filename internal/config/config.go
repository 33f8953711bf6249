package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// MockEndpoint selects the local rule-based annotator instead of a network call.
const MockEndpoint = "mock"

// Config is the root configuration for newsharvest.
type Config struct {
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Browser    BrowserConfig    `mapstructure:"browser"    yaml:"browser"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Quality    QualityConfig    `mapstructure:"quality"    yaml:"quality"`
	Annotation AnnotationConfig `mapstructure:"annotation" yaml:"annotation"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// FetcherConfig controls the plain HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
	RespectRobots   bool          `mapstructure:"respect_robots"    yaml:"respect_robots"`
}

// BrowserConfig controls the headless browser used by the rendered backend.
type BrowserConfig struct {
	Enabled     bool          `mapstructure:"enabled"      yaml:"enabled"`
	PageTimeout time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	WindowSize  string        `mapstructure:"window_size"  yaml:"window_size"`
	UserDataDir string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	BinPath     string        `mapstructure:"bin_path"     yaml:"bin_path"`
}

// ExtractionConfig controls the backend fallback chain.
type ExtractionConfig struct {
	// Backends lists backend names in priority order.
	Backends []string `mapstructure:"backends" yaml:"backends"`
	// Multipliers maps a backend name to its over-request factor.
	Multipliers map[string]int `mapstructure:"multipliers" yaml:"multipliers"`
	// HTMLDir receives homepage snapshots written by the saved-HTML backend.
	HTMLDir string `mapstructure:"html_dir" yaml:"html_dir"`
	// CandidateDelay is slept between candidate fetches.
	CandidateDelay time.Duration `mapstructure:"candidate_delay" yaml:"candidate_delay"`
}

// QualityConfig controls content scoring.
type QualityConfig struct {
	Threshold int      `mapstructure:"threshold" yaml:"threshold"`
	Keywords  []string `mapstructure:"keywords"  yaml:"keywords"`
}

// AnnotationConfig controls the LLM annotation call.
type AnnotationConfig struct {
	Endpoint    string        `mapstructure:"endpoint"     yaml:"endpoint"`
	Model       string        `mapstructure:"model"        yaml:"model"`
	APIKey      string        `mapstructure:"api_key"      yaml:"api_key"`
	Temperature float64       `mapstructure:"temperature"  yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
}

// StorageConfig controls output files and the optional document store.
type StorageConfig struct {
	DataDir         string `mapstructure:"data_dir"         yaml:"data_dir"`
	RawBaseName     string `mapstructure:"raw_base_name"    yaml:"raw_base_name"`
	ProcessedOutput string `mapstructure:"processed_output" yaml:"processed_output"`
	Format          string `mapstructure:"format"           yaml:"format"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultKeywords is the semiconductor vocabulary used for keyword scoring.
var DefaultKeywords = []string{
	"semiconductor", "chip", "manufacturing", "technology", "innovation",
	"processor", "silicon", "wafer", "fabrication", "electronics",
	"circuit", "transistor", "integrated", "microprocessor", "AI",
	"artificial intelligence", "machine learning", "quantum", "nanotechnology",
	"gallium", "arsenide", "nitride", "TSMC", "Intel", "AMD", "NVIDIA",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			RequestTimeout:  10 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			},
			AcceptLanguage: "en-US,en;q=0.9",
		},
		Browser: BrowserConfig{
			Enabled:     true,
			PageTimeout: 30 * time.Second,
			SettleDelay: 2 * time.Second,
			WindowSize:  "1366,768",
		},
		Extraction: ExtractionConfig{
			Backends: []string{"static", "saved_html", "rendered"},
			Multipliers: map[string]int{
				"static":     3,
				"saved_html": 3,
				"rendered":   1,
			},
			HTMLDir: "downloaded_htmls",
		},
		Quality: QualityConfig{
			Threshold: 3,
			Keywords:  append([]string(nil), DefaultKeywords...),
		},
		Annotation: AnnotationConfig{
			Endpoint:    "http://10.30.15.111:8080/api/chat/completions",
			Model:       "deepseek-r132b",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
			MinInterval: time.Second,
		},
		Storage: StorageConfig{
			DataDir:         "data",
			RawBaseName:     "article_data",
			ProcessedOutput: "data/articles_processed.json",
			Format:          "json",
			MongoDatabase:   "newsharvest",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// IsMock reports whether the annotation endpoint selects the local mock.
func (c AnnotationConfig) IsMock() bool {
	return strings.EqualFold(strings.TrimSpace(c.Endpoint), MockEndpoint)
}
