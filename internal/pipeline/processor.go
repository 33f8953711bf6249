package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/newsharvest/internal/quality"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// StatusRecorder receives one call per finalized article.
// *observability.Metrics implements it.
type StatusRecorder interface {
	AnnotationFinished(status string)
}

// Report summarizes a processing run.
type Report struct {
	Articles []*types.Article `json:"-"`

	Original       int     `json:"original"`
	Duplicates     int     `json:"duplicates"`
	Unique         int     `json:"unique"`
	Success        int     `json:"success"`
	Failed         int     `json:"failed"`
	LowQuality     int     `json:"low_quality"`
	NoContent      int     `json:"no_content"`
	Errors         int     `json:"errors"`
	Relevant       int     `json:"relevant"`
	AverageQuality float64 `json:"average_quality"`
}

// Processor deduplicates a batch and runs each article through a pipeline.
type Processor struct {
	pipeline *Pipeline
	recorder StatusRecorder
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithStatusRecorder attaches a metrics recorder.
func WithStatusRecorder(r StatusRecorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

// NewProcessor creates a Processor over pipeline.
func NewProcessor(pipeline *Pipeline, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipeline: pipeline,
		logger:   logger.With("component", "processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes articles sequentially. Duplicates (by content hash) are
// dropped first; articles with blank content skip deduplication and are
// finalized as no_content. Every returned article carries a terminal status
// and has its content stripped. Cancellation returns the articles finished
// so far together with ctx.Err().
func (p *Processor) Run(ctx context.Context, articles []*types.Article) (*Report, error) {
	report := &Report{Original: len(articles)}

	unique, duplicates := quality.Deduplicate(articles)
	report.Duplicates = duplicates
	for _, a := range articles {
		if a != nil && strings.TrimSpace(a.Content) == "" {
			unique = append(unique, a)
		}
	}
	report.Unique = len(unique)

	p.logger.Info("processing started",
		"original", report.Original,
		"duplicates", duplicates,
		"unique", report.Unique,
		"stages", p.pipeline.Len(),
	)

	for i, a := range unique {
		if err := ctx.Err(); err != nil {
			p.finish(report)
			return report, err
		}

		p.logger.Info("processing article", "index", i+1, "total", len(unique), "headline", truncate(a.Headline, 50))

		if _, err := p.pipeline.Process(ctx, a); err != nil {
			if ctx.Err() != nil {
				p.finish(report)
				return report, ctx.Err()
			}
			p.logger.Error("processing error", "index", i+1, "error", err)
			a.SetStatus(types.StatusError, types.SentimentNeutral, SummaryErrorPref+stageError(err).Error(), types.RelevantNo)
		}
		if !a.Finalized() {
			a.SetStatus(types.StatusError, types.SentimentNeutral, SummaryErrorPref+"no terminal status assigned", types.RelevantNo)
		}

		a.StripContent()
		p.tally(report, a)
	}

	p.finish(report)
	return report, nil
}

func (p *Processor) tally(r *Report, a *types.Article) {
	r.Articles = append(r.Articles, a)
	switch a.ProcessingStatus {
	case types.StatusSuccess:
		r.Success++
	case types.StatusFailed:
		r.Failed++
	case types.StatusLowQuality:
		r.LowQuality++
	case types.StatusNoContent:
		r.NoContent++
	case types.StatusError:
		r.Errors++
	}
	if a.Relevant == types.RelevantYes {
		r.Relevant++
	}
	if p.recorder != nil {
		p.recorder.AnnotationFinished(string(a.ProcessingStatus))
	}
}

func (p *Processor) finish(r *Report) {
	if len(r.Articles) > 0 {
		total := 0
		for _, a := range r.Articles {
			total += a.QualityScore
		}
		r.AverageQuality = float64(total) / float64(len(r.Articles))
	}

	p.logger.Info("processing complete",
		"original", r.Original,
		"duplicates", r.Duplicates,
		"unique", r.Unique,
		"success", r.Success,
		"failed", r.Failed,
		"low_quality", r.LowQuality,
		"no_content", r.NoContent,
		"errors", r.Errors,
		"relevant", r.Relevant,
		"average_quality", fmt.Sprintf("%.2f/10", r.AverageQuality),
	)
}

// stageError unwraps the stage wrapper so summaries carry the cause only.
func stageError(err error) error {
	var pe *types.PipelineError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err
	}
	return err
}
