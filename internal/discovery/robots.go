package discovery

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/IshaanNene/newsharvest/internal/fetcher"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// RobotsAgent is the product token matched against User-agent groups.
const RobotsAgent = "newsharvest"

// Robots filters candidate links by each host's robots.txt. Rules are
// fetched once per origin. A nil *Robots allows everything.
type Robots struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

// NewRobots creates a robots.txt policy that fetches through f.
func NewRobots(f fetcher.Fetcher, logger *slog.Logger) *Robots {
	return &Robots{
		fetcher: f,
		logger:  logger.With("component", "robots"),
		hosts:   make(map[string]*robotstxt.RobotsData),
	}
}

// Filter returns the links robots.txt allows, in their original order.
func (r *Robots) Filter(ctx context.Context, links []string) []string {
	if r == nil {
		return links
	}
	out := make([]string, 0, len(links))
	for _, link := range links {
		if r.Allowed(ctx, link) {
			out = append(out, link)
		} else {
			r.logger.Debug("link disallowed by robots.txt", "url", link)
		}
	}
	return out
}

// Allowed reports whether rawURL may be fetched. An unreachable robots.txt
// or a 4xx answer allows everything; a 5xx answer disallows the host.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	if r == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := r.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true
	}
	return robotsAllows(data, u.RequestURI())
}

func (r *Robots) rulesFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.Lock()
	data, ok := r.hosts[origin]
	r.mu.Unlock()
	if ok {
		return data
	}

	data = r.fetch(ctx, origin)

	r.mu.Lock()
	r.hosts[origin] = data
	r.mu.Unlock()
	return data
}

func (r *Robots) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := types.NewRequest(origin + "/robots.txt")
	if err != nil {
		return nil
	}
	resp, err := r.fetcher.Fetch(ctx, req)
	if err != nil {
		r.logger.Debug("robots.txt unavailable", "origin", origin, "error", err)
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		r.logger.Debug("robots.txt unusable", "origin", origin, "status", resp.StatusCode, "error", err)
		return nil
	}
	return data
}

// robotsAllows tests path against the group for RobotsAgent, falling back
// to the "*" group when no group names it.
func robotsAllows(data *robotstxt.RobotsData, path string) bool {
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, RobotsAgent)
}
