// Package orchestrator runs the extraction backends as an ordered fallback
// chain until each source's quota of usable articles is met.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/extractor"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// Stage pairs a backend with its over-request multiplier.
type Stage struct {
	Backend    extractor.Backend
	Multiplier int
}

// Source is a homepage and the number of usable articles wanted from it.
type Source struct {
	URL   string `json:"url"   yaml:"url"   mapstructure:"url"`
	Count int    `json:"count" yaml:"count" mapstructure:"count"`
}

// Recorder receives extraction counters. *observability.Metrics implements it.
type Recorder interface {
	ArticlesExtracted(backend string, n int)
	ArticlesKept(backend string, n int)
	BackendFailed(backend string)
}

// SourceReport records how one source's quota was filled. Extracted counts
// raw records across backends. Filtered counts those rejected as unusable
// and Duplicates those repeating an already kept URL. Records extracted
// after the quota filled are in none of Kept, Filtered or Duplicates.
type SourceReport struct {
	URL        string            `json:"url"`
	Requested  int               `json:"requested"`
	Extracted  int               `json:"extracted"`
	Kept       int               `json:"kept"`
	Filtered   int               `json:"filtered"`
	Duplicates int               `json:"duplicates"`
	ByBackend  map[string]int    `json:"by_backend"`
	Failures   map[string]string `json:"failures,omitempty"`
}

// Result is the outcome of one collection run.
type Result struct {
	Articles  []*types.Article `json:"-"`
	Sources   []SourceReport   `json:"sources"`
	Requested int              `json:"requested"`
	Kept      int              `json:"kept"`
}

// CompletionRatio is kept/requested, or 0 when nothing was requested.
func (r *Result) CompletionRatio() float64 {
	if r.Requested == 0 {
		return 0
	}
	return float64(r.Kept) / float64(r.Requested)
}

// Orchestrator drives the fallback chain.
type Orchestrator struct {
	stages   []Stage
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator over stages, tried in the given order.
func New(stages []Stage, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages: stages,
		logger: logger.With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StagesFromConfig builds stages in the configured backend order.
func StagesFromConfig(cfg *config.Config, f extractor.Fetchers, logger *slog.Logger) ([]Stage, error) {
	stages := make([]Stage, 0, len(cfg.Extraction.Backends))
	for _, name := range cfg.Extraction.Backends {
		backend, err := extractor.New(name, f, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("build stage %q: %w", name, err)
		}
		mult := cfg.Extraction.Multipliers[name]
		if mult < 1 {
			mult = 1
		}
		stages = append(stages, Stage{Backend: backend, Multiplier: mult})
	}
	return stages, nil
}

// Collect fills each source's quota in turn. Sources are processed
// sequentially; cancellation stops the run and returns what was collected
// together with ctx.Err().
func (o *Orchestrator) Collect(ctx context.Context, sources []Source) (*Result, error) {
	result := &Result{}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		articles, report, err := o.collectSource(ctx, src)
		articles = types.FilterUsable(articles)

		result.Articles = append(result.Articles, articles...)
		result.Sources = append(result.Sources, report)
		result.Requested += report.Requested
		result.Kept += len(articles)

		if err != nil {
			return result, err
		}
	}

	o.logger.Info("collection complete",
		"sources", len(sources),
		"requested", result.Requested,
		"kept", result.Kept,
		"completion", fmt.Sprintf("%.0f%%", result.CompletionRatio()*100),
	)
	return result, nil
}

func (o *Orchestrator) collectSource(ctx context.Context, src Source) ([]*types.Article, SourceReport, error) {
	report := SourceReport{
		URL:       src.URL,
		Requested: src.Count,
		ByBackend: make(map[string]int),
	}
	if src.Count <= 0 {
		return nil, report, nil
	}

	var usable []*types.Article
	seen := make(map[string]bool)

	for _, stage := range o.stages {
		if len(usable) >= src.Count {
			break
		}
		name := stage.Backend.Name()
		want := (src.Count - len(usable)) * stage.Multiplier

		o.logger.Info("trying backend",
			"source", src.URL,
			"backend", name,
			"have", len(usable),
			"need", src.Count,
			"requesting", want,
		)

		records, err := stage.Backend.Extract(ctx, src.URL, want)
		report.Extracted += len(records)
		o.recordExtracted(name, len(records))

		kept := 0
		for _, a := range records {
			if len(usable) >= src.Count {
				break
			}
			if !types.Usable(a) {
				report.Filtered++
				continue
			}
			if seen[a.ArticleURL] {
				report.Duplicates++
				continue
			}
			seen[a.ArticleURL] = true
			usable = append(usable, a)
			kept++
		}
		report.ByBackend[name] += kept
		o.recordKept(name, kept)

		if err != nil {
			if ctx.Err() != nil {
				report.Kept = len(usable)
				return usable, report, ctx.Err()
			}
			if report.Failures == nil {
				report.Failures = make(map[string]string)
			}
			report.Failures[name] = err.Error()
			o.recordFailure(name)
			o.logger.Warn("backend failed, escalating",
				"source", src.URL,
				"backend", name,
				"error", err,
			)
			continue
		}

		o.logger.Info("backend finished",
			"source", src.URL,
			"backend", name,
			"produced", len(records),
			"kept", kept,
			"have", len(usable),
			"need", src.Count,
		)
	}

	report.Kept = len(usable)
	if report.Kept < src.Count {
		o.logger.Warn("quota not met", "source", src.URL, "kept", report.Kept, "requested", src.Count)
	}
	return usable, report, nil
}

func (o *Orchestrator) recordExtracted(backend string, n int) {
	if o.recorder != nil {
		o.recorder.ArticlesExtracted(backend, n)
	}
}

func (o *Orchestrator) recordKept(backend string, n int) {
	if o.recorder != nil {
		o.recorder.ArticlesKept(backend, n)
	}
}

func (o *Orchestrator) recordFailure(backend string) {
	if o.recorder != nil {
		o.recorder.BackendFailed(backend)
	}
}
