package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// BrowserFetcher implements Fetcher using a headless Chromium driven by Rod.
// The browser is launched on first use and every fetch runs in its own page.
type BrowserFetcher struct {
	cfg       config.BrowserConfig
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserFetcher creates a browser fetcher. No browser process is started
// until the first Fetch.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) *BrowserFetcher {
	var ua string
	if len(cfg.Fetcher.UserAgents) > 0 {
		ua = cfg.Fetcher.UserAgents[0]
	}
	return &BrowserFetcher{
		cfg:       cfg.Browser,
		userAgent: ua,
		logger:    logger.With("component", "browser_fetcher"),
	}
}

// ensureBrowser launches and connects Chromium if it is not running yet.
func (bf *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.browser != nil {
		return bf.browser, nil
	}
	if !bf.cfg.Enabled {
		return nil, types.ErrBrowserDisabled
	}

	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox")
	if bf.cfg.BinPath != "" {
		l = l.Bin(bf.cfg.BinPath)
	}
	if bf.cfg.WindowSize != "" {
		l = l.Set("window-size", bf.cfg.WindowSize)
	}
	if bf.cfg.UserDataDir != "" {
		l = l.UserDataDir(bf.cfg.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf.browser = browser
	bf.launcher = l
	bf.logger.Info("browser ready", "window_size", bf.cfg.WindowSize)
	return browser, nil
}

// Fetch opens a fresh page, navigates to the URL, waits for the DOM to settle
// and returns the rendered HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	browser, err := bf.ensureBrowser()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	start := time.Now()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("open page: %w", err)}
	}
	defer func() { _ = page.Close() }()

	timeout := bf.cfg.PageTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	p := page.Context(ctx).Timeout(timeout)

	if bf.userAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.userAgent}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := p.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	if err := p.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	// Give client-side rendering a moment to populate lazy sections.
	if bf.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, &types.FetchError{URL: req.URLString(), Err: ctx.Err()}
		case <-time.After(bf.cfg.SettleDelay):
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	finalURL := req.URLString()
	if info, err := p.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)

	// Rod does not expose the navigation status code; a rendered page counts as 200.
	resp := types.NewResponse(req, http.StatusOK, nil, []byte(html), finalURL)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close shuts down the browser if it was started.
func (bf *BrowserFetcher) Close() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.browser == nil {
		return nil
	}
	err := bf.browser.Close()
	if bf.launcher != nil {
		bf.launcher.Cleanup()
	}
	bf.browser = nil
	bf.launcher = nil
	return err
}
