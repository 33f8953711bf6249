package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/discovery"
	"github.com/IshaanNene/newsharvest/internal/fetcher"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// SavedHTMLBackend snapshots the homepage to disk for inspection, then mines
// it with coarse link rules and simple tag lookups.
type SavedHTMLBackend struct {
	fetcher fetcher.Fetcher
	dir     string
	delay   time.Duration
	robots  *discovery.Robots
	logger  *slog.Logger
}

// NewSavedHTMLBackend creates the saved-HTML backend.
func NewSavedHTMLBackend(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *SavedHTMLBackend {
	return &SavedHTMLBackend{
		fetcher: f,
		dir:     cfg.Extraction.HTMLDir,
		delay:   cfg.Extraction.CandidateDelay,
		logger:  logger.With("component", "saved_html_backend"),
	}
}

// Name returns the backend identifier.
func (b *SavedHTMLBackend) Name() string { return NameSavedHTML }

// SnapshotName returns the file name used for a homepage snapshot.
func SnapshotName(homepage string) string {
	name := strings.TrimPrefix(homepage, "https://")
	name = strings.TrimPrefix(name, "http://")
	return "downloaded_" + strings.ReplaceAll(name, "/", "_") + ".html"
}

// Extract implements Backend.
func (b *SavedHTMLBackend) Extract(ctx context.Context, homepage string, max int) ([]*types.Article, error) {
	if max <= 0 {
		return nil, nil
	}

	resp, err := fetchPage(ctx, b.fetcher, homepage, homepage)
	if err != nil {
		return nil, &types.ExtractError{Backend: NameSavedHTML, URL: homepage, Stage: "homepage", Err: err}
	}

	path, err := b.save(homepage, resp.Body)
	if err != nil {
		// The snapshot is for inspection only; extraction continues from memory.
		b.logger.Warn("failed to save homepage snapshot", "source", homepage, "error", err)
	} else {
		b.logger.Info("saved homepage snapshot", "source", homepage, "path", path)
	}

	root, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.ExtractError{Backend: NameSavedHTML, URL: homepage, Stage: "discovery", Err: err}
	}

	candidates := b.robots.Filter(ctx, discovery.DiscoverCoarse(root, baseURL(resp, homepage)))
	b.logger.Info("candidate links found", "source", homepage, "count", len(candidates))
	if len(candidates) == 0 {
		return nil, &types.ExtractError{Backend: NameSavedHTML, URL: homepage, Stage: "discovery", Err: types.ErrNoCandidates}
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	var articles []*types.Article
	for i, link := range candidates {
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

	b.logger.Info("extraction complete", "source", homepage, "articles", len(articles))
	return articles, nil
}

func (b *SavedHTMLBackend) save(homepage string, body []byte) (string, error) {
	if b.dir == "" {
		return "", fmt.Errorf("no snapshot directory configured")
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(b.dir, SnapshotName(homepage))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (b *SavedHTMLBackend) extractArticle(ctx context.Context, link, homepage string) (*types.Article, error) {
	resp, err := fetchPage(ctx, b.fetcher, link, homepage)
	if err != nil {
		return nil, err
	}
	root, err := htmlquery.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &types.Article{
		Date:       NormalizeDate(NodeText(findFirst(root, "//time"))),
		Headline:   NodeText(findFirst(root, "//h1", "//h2")),
		Content:    NodeText(findFirst(root, "//article", "//main", "//div[contains(@class,'content')]")),
		ArticleURL: link,
		SourceURL:  homepage,
		Backend:    NameSavedHTML,
	}, nil
}

// findFirst returns the first node matched by the first XPath that matches.
func findFirst(root *html.Node, exprs ...string) *html.Node {
	for _, expr := range exprs {
		n, err := htmlquery.Query(root, expr)
		if err == nil && n != nil {
			return n
		}
	}
	return nil
}
