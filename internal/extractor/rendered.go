package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/discovery"
	"github.com/IshaanNene/newsharvest/internal/fetcher"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// AcceptFunc decides whether an extracted record is kept by the rendered backend.
type AcceptFunc func(*types.Article) bool

// RenderedOption configures a RenderedBackend.
type RenderedOption func(*RenderedBackend)

// WithAccept replaces the default acceptance predicate (types.Usable).
func WithAccept(accept AcceptFunc) RenderedOption {
	return func(b *RenderedBackend) {
		if accept != nil {
			b.accept = accept
		}
	}
}

// RenderedBackend loads pages in a headless browser so script-built layouts
// are visible, then reads them with DOM selectors.
type RenderedBackend struct {
	fetcher fetcher.Fetcher
	accept  AcceptFunc
	delay   time.Duration
	robots  *discovery.Robots
	logger  *slog.Logger
}

// NewRenderedBackend creates the rendered-page backend over a browser fetcher.
func NewRenderedBackend(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger, opts ...RenderedOption) *RenderedBackend {
	b := &RenderedBackend{
		fetcher: f,
		accept:  types.Usable,
		delay:   cfg.Extraction.CandidateDelay,
		logger:  logger.With("component", "rendered_backend"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *RenderedBackend) Name() string { return NameRendered }

// Extract implements Backend. Only records passing the acceptance predicate
// are returned, so the result may be shorter than the candidate list.
func (b *RenderedBackend) Extract(ctx context.Context, homepage string, max int) ([]*types.Article, error) {
	if max <= 0 {
		return nil, nil
	}

	resp, err := fetchPage(ctx, b.fetcher, homepage, homepage)
	if err != nil {
		return nil, &types.ExtractError{Backend: NameRendered, URL: homepage, Stage: "homepage", Err: err}
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ExtractError{Backend: NameRendered, URL: homepage, Stage: "discovery", Err: err}
	}

	candidates := b.robots.Filter(ctx, discovery.Discover(doc, baseURL(resp, homepage), discovery.ModeRendered))
	b.logger.Info("candidate links found", "source", homepage, "count", len(candidates))
	if len(candidates) == 0 {
		return nil, &types.ExtractError{Backend: NameRendered, URL: homepage, Stage: "discovery", Err: types.ErrNoCandidates}
	}

	var accepted []*types.Article
	for i, link := range candidates {
		if len(accepted) >= max {
			break
		}
		if i > 0 {
			if err := pause(ctx, b.delay); err != nil {
				return accepted, err
			}
		}

		article, err := b.extractArticle(ctx, link, homepage)
		if err != nil {
			if ctx.Err() != nil {
				return accepted, ctx.Err()
			}
			b.logger.Warn("skipping candidate", "url", link, "error", err)
			continue
		}

		b.logger.Debug("extracted",
			"url", link,
			"headline", truncate(article.Headline, 30),
			"date", article.Date,
			"content_length", len([]rune(article.Content)),
		)
		if !b.accept(article) {
			continue
		}
		accepted = append(accepted, article)
	}

	b.logger.Info("extraction complete", "source", homepage, "articles", len(accepted), "candidates", len(candidates))
	return accepted, nil
}

func (b *RenderedBackend) extractArticle(ctx context.Context, link, homepage string) (*types.Article, error) {
	resp, err := fetchPage(ctx, b.fetcher, link, homepage)
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &types.Article{
		Date:       dateFrom(doc),
		Headline:   headlineFrom(doc),
		Content:    contentFrom(doc, types.MinContentLength),
		ArticleURL: link,
		SourceURL:  homepage,
		Backend:    NameRendered,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
