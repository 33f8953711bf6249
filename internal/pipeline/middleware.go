package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IshaanNene/newsharvest/internal/annotate"
	"github.com/IshaanNene/newsharvest/internal/extractor"
	"github.com/IshaanNene/newsharvest/internal/quality"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// Fixed summaries written for articles that never reach a successful call.
const (
	SummaryNoContent  = "无内容可供分析"
	SummaryLowQuality = "文章质量过低，跳过分析"
	SummaryFailed     = "LLM分析失败"
	SummaryErrorPref  = "处理错误: "
)

// --- Normalization ---

// NormalizeStage tidies fields of records loaded from disk: whitespace in
// the headline and the date shape.
type NormalizeStage struct{}

func (s *NormalizeStage) Name() string { return "normalize" }

func (s *NormalizeStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	a.Headline = strings.Join(strings.Fields(a.Headline), " ")
	a.Date = extractor.NormalizeDate(a.Date)
	return a, nil
}

// --- Scoring ---

// QualityStage scores every article that has content, including ones the
// quality gate will stop.
type QualityStage struct {
	Assessor *quality.Assessor
}

func (s *QualityStage) Name() string { return "quality" }

func (s *QualityStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	s.Assessor.Apply(a, s.Assessor.Assess(a))
	return a, nil
}

// --- Gates ---

// ContentGate finalizes articles with no body text as no_content.
type ContentGate struct {
	logger *slog.Logger
}

func NewContentGate(logger *slog.Logger) *ContentGate {
	return &ContentGate{logger: logger.With("component", "content_gate")}
}

func (g *ContentGate) Name() string { return "content_gate" }

func (g *ContentGate) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	if strings.TrimSpace(a.Content) != "" {
		return a, nil
	}
	g.logger.Warn("no content", "headline", a.Headline, "url", a.ArticleURL)
	a.SetStatus(types.StatusNoContent, types.SentimentNeutral, SummaryNoContent, types.RelevantNo)
	return nil, nil
}

// QualityGate finalizes articles scoring below the threshold as low_quality
// so they never reach the model.
type QualityGate struct {
	threshold int
	logger    *slog.Logger
}

func NewQualityGate(threshold int, logger *slog.Logger) *QualityGate {
	return &QualityGate{threshold: threshold, logger: logger.With("component", "quality_gate")}
}

func (g *QualityGate) Name() string { return "quality_gate" }

func (g *QualityGate) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	if a.QualityScore >= g.threshold {
		return a, nil
	}
	g.logger.Info("skipping low quality article",
		"headline", truncate(a.Headline, 50),
		"score", a.QualityScore,
		"threshold", g.threshold,
	)
	a.SetStatus(types.StatusLowQuality, types.SentimentNeutral, SummaryLowQuality, types.RelevantNo)
	return nil, nil
}

// --- Annotation ---

// AnnotateStage calls the annotator and records success or the fixed
// failure fallback.
type AnnotateStage struct {
	annotator annotate.Annotator
	logger    *slog.Logger
}

func NewAnnotateStage(annotator annotate.Annotator, logger *slog.Logger) *AnnotateStage {
	return &AnnotateStage{annotator: annotator, logger: logger.With("component", "annotate_stage")}
}

func (s *AnnotateStage) Name() string { return "annotate" }

func (s *AnnotateStage) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	ann, err := s.annotator.Annotate(ctx, a.Content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("annotation failed", "headline", truncate(a.Headline, 50), "error", err)
		a.SetStatus(types.StatusFailed, types.SentimentNeutral, SummaryFailed, types.RelevantNo)
		return a, nil
	}
	a.SetStatus(types.StatusSuccess, ann.Sentiment, ann.Summary, ann.Relevant)
	return a, nil
}

// Default builds the standard chain: normalize, content gate, score,
// quality gate, annotate. Records without content are never scored.
func Default(assessor *quality.Assessor, annotator annotate.Annotator, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&NormalizeStage{})
	p.Use(NewContentGate(logger))
	p.Use(&QualityStage{Assessor: assessor})
	p.Use(NewQualityGate(assessor.Threshold(), logger))
	p.Use(NewAnnotateStage(annotator, logger))
	return p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
