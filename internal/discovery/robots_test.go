package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/temoto/robotstxt"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const robotsTxt = `# sample
User-agent: *
Disallow: /private/
Disallow: /*.pdf$
Allow: /private/press/

User-agent: otherbot
Disallow: /
`

func mustParseRobots(t *testing.T, content string) *robotstxt.RobotsData {
	t.Helper()
	data, err := robotstxt.FromString(content)
	if err != nil {
		t.Fatalf("parse robots.txt: %v", err)
	}
	return data
}

func TestRobotsWildcardGroup(t *testing.T) {
	data := mustParseRobots(t, robotsTxt)

	tests := []struct {
		path string
		want bool
	}{
		{"/news/chip", true},
		{"/private/memo", false},
		{"/private/press/release", true},
		{"/files/report.pdf", false},
		{"/", true},
	}
	for _, tt := range tests {
		if got := robotsAllows(data, tt.path); got != tt.want {
			t.Errorf("robotsAllows(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRobotsNamedGroupWins(t *testing.T) {
	data := mustParseRobots(t, "User-agent: *\nDisallow: /\n\nUser-agent: NewsHarvest\nDisallow: /drafts/\n")
	if !robotsAllows(data, "/news/a") {
		t.Error("named group should replace the wildcard group")
	}
	if robotsAllows(data, "/drafts/x") {
		t.Error("/drafts/ should be disallowed for the named agent")
	}
}

func TestRobotsNamedGroupWithEmptyDisallowAllowsAll(t *testing.T) {
	data := mustParseRobots(t, "User-agent: newsharvest\nDisallow:\n\nUser-agent: *\nDisallow: /\n")
	if !robotsAllows(data, "/news/a.html") {
		t.Error("a named group with an empty Disallow should allow everything")
	}
}

func TestRobotsFilterFetchesOncePerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = w.Write([]byte(robotsTxt))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f, err := fetcher.NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	defer f.Close()

	robots := NewRobots(f, testLogger)
	links := []string{
		srv.URL + "/news/one",
		srv.URL + "/private/two",
		srv.URL + "/news/three",
	}
	got := robots.Filter(context.Background(), links)
	if len(got) != 2 || got[0] != links[0] || got[1] != links[2] {
		t.Fatalf("Filter = %v", got)
	}
	if hits.Load() != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", hits.Load())
	}
}

func TestRobotsMissingFileAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f, err := fetcher.NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	defer f.Close()

	if !NewRobots(f, testLogger).Allowed(context.Background(), srv.URL+"/anything") {
		t.Error("a missing robots.txt should allow everything")
	}

	var nilRobots *Robots
	if len(nilRobots.Filter(context.Background(), []string{"a", "b"})) != 2 {
		t.Error("nil Robots should keep every link")
	}
}

func TestRobotsServerErrorDisallowsHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, err := fetcher.NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	defer f.Close()

	if NewRobots(f, testLogger).Allowed(context.Background(), srv.URL+"/news/a") {
		t.Error("a 5xx robots.txt should disallow the host")
	}
}
