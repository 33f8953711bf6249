package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/extractor"
	"github.com/IshaanNene/newsharvest/internal/observability"
	"github.com/IshaanNene/newsharvest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeBackend returns all canned records regardless of max and remembers
// what it was asked for.
type fakeBackend struct {
	name     string
	records  []*types.Article
	err      error
	requests []int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Extract(_ context.Context, _ string, max int) ([]*types.Article, error) {
	f.requests = append(f.requests, max)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func usableArticle(url string) *types.Article {
	return &types.Article{
		Headline:   "Headline " + url,
		Content:    strings.Repeat("x", types.MinContentLength),
		ArticleURL: url,
		SourceURL:  "https://example.com",
	}
}

func shortArticle(url string) *types.Article {
	return &types.Article{Headline: "Short", Content: "too short", ArticleURL: url}
}

func TestCollectStopsAtFirstSufficientBackend(t *testing.T) {
	static := &fakeBackend{name: "static", records: []*types.Article{
		usableArticle("a"), shortArticle("b"), usableArticle("c"), usableArticle("d"),
	}}
	rendered := &fakeBackend{name: "rendered"}

	o := New([]Stage{{static, 3}, {rendered, 1}}, testLogger)
	res, err := o.Collect(context.Background(), []Source{{URL: "https://example.com", Count: 2}})
	require.NoError(t, err)

	assert.Len(t, res.Articles, 2)
	assert.Equal(t, []int{6}, static.requests)
	assert.Empty(t, rendered.requests, "later backends should not run once the quota is met")
	assert.Equal(t, 1, res.Sources[0].Filtered)
	assert.Equal(t, 2, res.Sources[0].ByBackend["static"])
	assert.InDelta(t, 1.0, res.CompletionRatio(), 1e-9)
}

func TestCollectEscalatesWithRemainingQuota(t *testing.T) {
	static := &fakeBackend{name: "static", records: []*types.Article{usableArticle("a"), shortArticle("s")}}
	saved := &fakeBackend{name: "saved_html", err: &types.ExtractError{Backend: "saved_html", Stage: "homepage", Err: errors.New("403")}}
	rendered := &fakeBackend{name: "rendered", records: []*types.Article{
		usableArticle("a"), usableArticle("b"), usableArticle("c"), usableArticle("d"),
	}}

	metrics := observability.NewMetrics(testLogger)
	o := New([]Stage{{static, 3}, {saved, 3}, {rendered, 1}}, testLogger, WithRecorder(metrics))
	res, err := o.Collect(context.Background(), []Source{{URL: "https://example.com", Count: 3}})
	require.NoError(t, err)

	assert.Equal(t, []int{9}, static.requests)
	assert.Equal(t, []int{6}, saved.requests)
	assert.Equal(t, []int{2}, rendered.requests)

	report := res.Sources[0]
	assert.Equal(t, 3, report.Kept)
	assert.Equal(t, 1, report.ByBackend["static"])
	assert.Equal(t, 2, report.ByBackend["rendered"], "duplicate URL a must not count twice")
	assert.Contains(t, report.Failures, "saved_html")
	assert.Equal(t, 6, report.Extracted)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 1, report.Duplicates)

	urls := make([]string, 0, len(res.Articles))
	for _, a := range res.Articles {
		urls = append(urls, a.ArticleURL)
	}
	assert.Equal(t, []string{"a", "b", "c"}, urls)
}

func TestCollectAccountsForEveryExaminedRecord(t *testing.T) {
	static := &fakeBackend{name: "static", records: []*types.Article{
		usableArticle("a"), usableArticle("a"), shortArticle("s"), usableArticle("b"),
	}}
	o := New([]Stage{{static, 1}}, testLogger)

	res, err := o.Collect(context.Background(), []Source{{URL: "https://example.com", Count: 5}})
	require.NoError(t, err)

	report := res.Sources[0]
	assert.Equal(t, 4, report.Extracted)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, report.Extracted, report.Kept+report.Filtered+report.Duplicates)
}

func TestCollectNeverExceedsQuota(t *testing.T) {
	for n := 0; n <= 5; n++ {
		var records []*types.Article
		for i := 0; i < 20; i++ {
			records = append(records, usableArticle(fmt.Sprintf("u%d", i)))
		}
		greedy := &fakeBackend{name: "greedy", records: records}

		o := New([]Stage{{greedy, 3}}, testLogger)
		res, err := o.Collect(context.Background(), []Source{{URL: "s", Count: n}})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Articles), n)
		for _, a := range res.Articles {
			assert.True(t, types.Usable(a))
		}
	}
}

func TestCollectPartialQuotaAndRatio(t *testing.T) {
	static := &fakeBackend{name: "static", records: []*types.Article{usableArticle("a")}}
	o := New([]Stage{{static, 3}}, testLogger)

	res, err := o.Collect(context.Background(), []Source{
		{URL: "one", Count: 2},
		{URL: "two", Count: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Requested)
	assert.Equal(t, 2, res.Kept)
	assert.InDelta(t, 0.5, res.CompletionRatio(), 1e-9)
	assert.Len(t, res.Sources, 2)
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	static := &fakeBackend{name: "static", records: []*types.Article{usableArticle("a")}}
	o := New([]Stage{{static, 3}}, testLogger)
	_, err := o.Collect(ctx, []Source{{URL: "one", Count: 1}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, static.requests)
}

func TestStagesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Extraction.Backends = []string{"static", "saved_html"}

	stages, err := StagesFromConfig(cfg, extractor.Fetchers{}, testLogger)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "static", stages[0].Backend.Name())
	assert.Equal(t, 3, stages[1].Multiplier)

	cfg.Extraction.Backends = []string{"rendered"}
	_, err = StagesFromConfig(cfg, extractor.Fetchers{}, testLogger)
	assert.ErrorIs(t, err, types.ErrBrowserDisabled)
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("https://news.example.com=5")
	require.NoError(t, err)
	assert.Equal(t, Source{URL: "https://news.example.com", Count: 5}, src)

	src, err = ParseSource("https://news.example.com/list?page=a")
	require.NoError(t, err)
	assert.Equal(t, 1, src.Count)
	assert.Equal(t, "https://news.example.com/list?page=a", src.URL)

	_, err = ParseSource("https://news.example.com=0")
	assert.Error(t, err)
	_, err = ParseSource("news.example.com=3")
	assert.Error(t, err)
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()

	yamlPath := dir + "/sources.yaml"
	require.NoError(t, os.WriteFile(yamlPath, []byte("- url: https://a.example.com\n  count: 3\n- url: https://b.example.com\n  count: 1\n"), 0o644))
	sources, err := LoadSources(yamlPath)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, 3, sources[0].Count)

	jsonPath := dir + "/sources.json"
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"url":"https://c.example.com","count":2}]`), 0o644))
	sources, err = LoadSources(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "https://c.example.com", sources[0].URL)

	badPath := dir + "/bad.yaml"
	require.NoError(t, os.WriteFile(badPath, []byte("- url: https://d.example.com\n  count: 0\n"), 0o644))
	_, err = LoadSources(badPath)
	assert.Error(t, err)
}
