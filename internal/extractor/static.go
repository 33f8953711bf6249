package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/discovery"
	"github.com/IshaanNene/newsharvest/internal/fetcher"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// StaticBackend fetches plain HTML and extracts the main text with readability.
type StaticBackend struct {
	fetcher fetcher.Fetcher
	delay   time.Duration
	robots  *discovery.Robots
	logger  *slog.Logger
}

// NewStaticBackend creates the static extraction backend.
func NewStaticBackend(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *StaticBackend {
	return &StaticBackend{
		fetcher: f,
		delay:   cfg.Extraction.CandidateDelay,
		logger:  logger.With("component", "static_backend"),
	}
}

// Name returns the backend identifier.
func (b *StaticBackend) Name() string { return NameStatic }

// Extract implements Backend.
func (b *StaticBackend) Extract(ctx context.Context, homepage string, max int) ([]*types.Article, error) {
	if max <= 0 {
		return nil, nil
	}

	resp, err := fetchPage(ctx, b.fetcher, homepage, homepage)
	if err != nil {
		return nil, &types.ExtractError{Backend: NameStatic, URL: homepage, Stage: "homepage", Err: err}
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ExtractError{Backend: NameStatic, URL: homepage, Stage: "discovery", Err: err}
	}

	candidates := b.robots.Filter(ctx, discovery.Discover(doc, baseURL(resp, homepage), discovery.ModeStatic))
	b.logger.Info("candidate links found", "source", homepage, "count", len(candidates))
	if len(candidates) == 0 {
		return nil, &types.ExtractError{Backend: NameStatic, URL: homepage, Stage: "discovery", Err: types.ErrNoCandidates}
	}

	var articles []*types.Article
	for i, link := range candidates {
		if len(articles) >= max {
			break
		}
		if i > 0 {
			if err := pause(ctx, b.delay); err != nil {
				return articles, err
			}
		}

		article, err := b.extractArticle(ctx, link, homepage)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			b.logger.Warn("skipping candidate", "url", link, "error", err)
			continue
		}
		articles = append(articles, article)
	}

	b.logger.Info("extraction complete", "source", homepage, "articles", len(articles), "requested", max)
	return articles, nil
}

func (b *StaticBackend) extractArticle(ctx context.Context, link, homepage string) (*types.Article, error) {
	resp, err := fetchPage(ctx, b.fetcher, link, homepage)
	if err != nil {
		return nil, err
	}

	pageURL, _ := url.Parse(baseURL(resp, link))
	parsed, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	var text strings.Builder
	if err := parsed.RenderText(&text); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	content := CleanText(text.String())

	doc, err := resp.Document()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	headline := CleanText(parsed.Title())
	if headline == "" {
		headline = staticTitleFallback(doc)
	}

	if headline == "" || content == "" {
		return nil, fmt.Errorf("empty headline or content")
	}

	return &types.Article{
		Date:       dateFrom(doc),
		Headline:   headline,
		Content:    content,
		ArticleURL: link,
		SourceURL:  homepage,
		Backend:    NameStatic,
	}, nil
}

func staticTitleFallback(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if v := CleanText(og); v != "" {
			return v
		}
	}
	return selectionText(doc.Find("h1").First())
}
