// Package extractor implements the article extraction backends used by the
// orchestrator's fallback chain.
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

// Backend names as they appear in configuration and reports.
const (
	NameStatic    = "static"
	NameSavedHTML = "saved_html"
	NameRendered  = "rendered"
)

// Backend extracts up to max article records from a homepage.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Extract discovers candidate links on the homepage and turns them into
	// article records. Per-candidate failures are skipped; a failure to load
	// the homepage itself is returned as a *types.ExtractError.
	Extract(ctx context.Context, homepage string, max int) ([]*types.Article, error)
}

// Fetchers groups the page fetchers backends are built from. Robots, when
// set, drops candidate links the site's robots.txt disallows.
type Fetchers struct {
	HTTP    fetcher.Fetcher
	Browser fetcher.Fetcher
	Robots  *discovery.Robots
}

// New builds the backend registered under name.
func New(name string, f Fetchers, cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch name {
	case NameStatic:
		b := NewStaticBackend(f.HTTP, cfg, logger)
		b.robots = f.Robots
		return b, nil
	case NameSavedHTML:
		b := NewSavedHTMLBackend(f.HTTP, cfg, logger)
		b.robots = f.Robots
		return b, nil
	case NameRendered:
		if f.Browser == nil {
			return nil, fmt.Errorf("rendered backend: %w", types.ErrBrowserDisabled)
		}
		b := NewRenderedBackend(f.Browser, cfg, logger)
		b.robots = f.Robots
		return b, nil
	default:
		return nil, fmt.Errorf("unknown extraction backend %q", name)
	}
}

// fetchPage fetches a URL and treats any non-2xx status as an error.
func fetchPage(ctx context.Context, f fetcher.Fetcher, rawURL, sourceURL string) (*types.Response, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.SourceURL = sourceURL

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: types.ErrBadStatus}
	}
	if len(resp.Body) == 0 {
		return nil, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse}
	}
	return resp, nil
}

// baseURL prefers the post-redirect URL for resolving relative links.
func baseURL(resp *types.Response, homepage string) string {
	if resp.FinalURL != "" {
		return resp.FinalURL
	}
	return homepage
}

// pause sleeps a jittered delay between candidate fetches.
func pause(ctx context.Context, d time.Duration) error {
	d = fetcher.RandomDelay(d)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
