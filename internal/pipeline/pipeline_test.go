package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/newsharvest/internal/annotate"
	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/quality"
	"github.com/IshaanNene/newsharvest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubAnnotator returns a fixed result and counts calls.
type stubAnnotator struct {
	result *annotate.Annotation
	err    error
	calls  int
}

func (s *stubAnnotator) Annotate(context.Context, string) (*annotate.Annotation, error) {
	s.calls++
	return s.result, s.err
}

func richContent(seed string) string {
	return seed + " " + strings.Repeat("Wafer output and silicon supply improved at the fab. ", 12)
}

func newProcessor(ann annotate.Annotator) *Processor {
	assessor := quality.NewAssessor(config.DefaultConfig().Quality)
	return NewProcessor(Default(assessor, ann, testLogger), testLogger)
}

func TestPipelineStopsOnNil(t *testing.T) {
	p := New(testLogger)
	p.Use(NewContentGate(testLogger))
	p.Use(&panicStage{})

	a := &types.Article{Headline: "empty"}
	out, err := p.Process(context.Background(), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != a || a.ProcessingStatus != types.StatusNoContent {
		t.Errorf("expected chain to stop with no_content, got %q", a.ProcessingStatus)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d", p.Len())
	}
}

type panicStage struct{}

func (panicStage) Name() string { return "explode" }
func (panicStage) Process(context.Context, *types.Article) (*types.Article, error) {
	panic("boom")
}

func TestPipelineRecoversPanics(t *testing.T) {
	p := New(testLogger)
	p.Use(&panicStage{})

	_, err := p.Process(context.Background(), &types.Article{Content: "x"})
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "explode" {
		t.Errorf("stage = %q", pe.Stage)
	}
}

func TestNormalizeStage(t *testing.T) {
	a := &types.Article{Headline: "  Fab \n opens ", Date: "2024-03-09"}
	if _, err := (&NormalizeStage{}).Process(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if a.Headline != "Fab opens" || a.Date != "03.09.2024" {
		t.Errorf("normalized = %q / %q", a.Headline, a.Date)
	}
}

func TestProcessorStatuses(t *testing.T) {
	ann := &stubAnnotator{result: &annotate.Annotation{
		Sentiment: types.SentimentPositive, Summary: "好", Relevant: types.RelevantYes,
	}}

	articles := []*types.Article{
		{Headline: "good", Content: richContent("one"), Date: "05.01.2024", ArticleURL: "https://e.com/1"},
		{Headline: "dup", Content: strings.ToUpper(richContent("one")), ArticleURL: "https://e.com/2"},
		{Headline: "thin", Content: "Short note.", ArticleURL: "https://e.com/3"},
		{Headline: "blank", Content: "", Date: "2024-01-05", ArticleURL: "https://e.com/4"},
	}

	report, err := newProcessor(ann).Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Original != 4 || report.Duplicates != 1 || report.Unique != 3 {
		t.Errorf("counts = %+v", report)
	}
	if report.Success != 1 || report.LowQuality != 1 || report.NoContent != 1 {
		t.Errorf("statuses = %+v", report)
	}
	if report.Relevant != 1 {
		t.Errorf("relevant = %d", report.Relevant)
	}
	if ann.calls != 1 {
		t.Errorf("annotator called %d times, want 1", ann.calls)
	}

	byHeadline := map[string]*types.Article{}
	for _, a := range report.Articles {
		byHeadline[a.Headline] = a
		if a.Content != "" {
			t.Errorf("%s: content must be stripped", a.Headline)
		}
		if !a.Finalized() {
			t.Errorf("%s: no terminal status", a.Headline)
		}
	}

	if got := byHeadline["thin"]; got.Summary != SummaryLowQuality || got.Sentiment != types.SentimentNeutral {
		t.Errorf("low quality article = %+v", got)
	}
	if got := byHeadline["thin"]; got.QualityScore == 0 && len(got.QualityFactors) == 0 {
		t.Error("low quality article should keep its scoring fields")
	}
	if got := byHeadline["blank"]; got.ProcessingStatus != types.StatusNoContent || got.Summary != SummaryNoContent {
		t.Errorf("blank article = %+v", got)
	}
	if got := byHeadline["blank"]; got.QualityScore != 0 || len(got.QualityFactors) != 0 {
		t.Errorf("blank article must not be scored: score=%d factors=%v", got.QualityScore, got.QualityFactors)
	}
	if got := byHeadline["good"]; got.ContentHash == "" || got.Summary != "好" {
		t.Errorf("good article = %+v", got)
	}
}

// Scenario: an annotation failure records the fixed neutral fallback.
func TestProcessorAnnotationFailure(t *testing.T) {
	ann := &stubAnnotator{err: &types.AnnotationError{Kind: types.KindMalformed, Attempts: 1, Err: types.ErrEmptyResponse}}
	articles := []*types.Article{{Headline: "h", Content: richContent("x"), ArticleURL: "https://e.com/a"}}

	report, err := newProcessor(ann).Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	a := report.Articles[0]
	if a.ProcessingStatus != types.StatusFailed || a.Summary != SummaryFailed ||
		a.Sentiment != types.SentimentNeutral || a.Relevant != types.RelevantNo {
		t.Errorf("failed article = %+v", a)
	}
	if report.Failed != 1 {
		t.Errorf("failed = %d", report.Failed)
	}
}

func TestProcessorStageErrorBecomesErrorStatus(t *testing.T) {
	p := New(testLogger)
	p.Use(&panicStage{})
	proc := NewProcessor(p, testLogger)

	report, err := proc.Run(context.Background(), []*types.Article{{Headline: "h", Content: "body"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	a := report.Articles[0]
	if a.ProcessingStatus != types.StatusError {
		t.Fatalf("status = %q", a.ProcessingStatus)
	}
	if a.Summary != SummaryErrorPref+"panic: boom" {
		t.Errorf("summary = %q", a.Summary)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d", report.Errors)
	}
}

// Scenario: the mock endpoint yields success without any network call.
func TestProcessorWithMockAnnotator(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Annotation.Endpoint = config.MockEndpoint
	ann := annotate.New(cfg.Annotation, cfg.Quality.Keywords, nil, nil, testLogger)

	articles := []*types.Article{{Headline: "h", Content: richContent("Revenue growth."), Date: "d", ArticleURL: "u"}}
	report, err := newProcessor(ann).Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	a := report.Articles[0]
	if a.ProcessingStatus != types.StatusSuccess || a.Sentiment != types.SentimentPositive || a.Relevant != types.RelevantYes {
		t.Errorf("mock article = %+v", a)
	}
	if report.AverageQuality != float64(a.QualityScore) {
		t.Errorf("average = %v", report.AverageQuality)
	}
}

func TestProcessorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newProcessor(&stubAnnotator{}).Run(ctx, []*types.Article{{Headline: "h", Content: "c"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Articles) != 0 {
		t.Errorf("no article should be processed after cancellation")
	}
}
