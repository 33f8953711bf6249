package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/types"
)

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

// HTTPFetcher fetches pages over net/http with the headers a desktop
// browser would send. One instance is shared by the static and saved-HTML
// backends and by the robots policy.
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
	headers http.Header
	agents  []string
	next    atomic.Int64
	logger  *slog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from the fetcher section of cfg.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	fc := cfg.Fetcher

	// News sites commonly set consent and session cookies on the homepage
	// and expect them back on article pages.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        fc.MaxIdleConns,
		MaxIdleConnsPerHost: max(fc.MaxIdleConns/2, 1),
		IdleConnTimeout:     fc.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: fc.TLSInsecure},
		// Accept-Encoding is set by hand so br can be offered; decoding
		// happens in decodeBody.
		DisableCompression: true,
	}

	lang := fc.AcceptLanguage
	if lang == "" {
		lang = "en-US,en;q=0.9"
	}
	headers := http.Header{}
	headers.Set("Accept", defaultAccept)
	headers.Set("Accept-Language", lang)
	headers.Set("Accept-Encoding", "gzip, deflate, br")

	return &HTTPFetcher{
		client: &http.Client{
			Transport:     transport,
			Jar:           jar,
			Timeout:       fc.RequestTimeout,
			CheckRedirect: redirectPolicy(fc.FollowRedirects, fc.MaxRedirects),
		},
		maxBody: fc.MaxBodySize,
		headers: headers,
		agents:  fc.UserAgents,
		logger:  logger.With("component", "http_fetcher"),
	}, nil
}

func redirectPolicy(follow bool, limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	}
}

// Fetch GETs the page. The decoded body is truncated at the configured size,
// not rejected.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := req.URLString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	for key, values := range f.headers {
		httpReq.Header[key] = values
	}
	httpReq.Header.Set("User-Agent", f.userAgent())
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := f.readBody(httpResp)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: target, StatusCode: httpResp.StatusCode, Err: err}
	}

	finalURL := target
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}

	f.logger.Debug("fetched",
		"url", target,
		"final_url", finalURL,
		"source", req.SourceURL,
		"status", httpResp.StatusCode,
		"bytes", len(body),
		"elapsed", elapsed,
	)
	return types.NewResponse(req, httpResp.StatusCode, httpResp.Header, body, finalURL), nil
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", resp.Header.Get("Content-Encoding"), err)
	}
	defer decoded.Close()

	var reader io.Reader = decoded
	if f.maxBody > 0 {
		reader = io.LimitReader(reader, f.maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Close drops idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// userAgent rotates through the configured agents.
func (f *HTTPFetcher) userAgent() string {
	if len(f.agents) == 0 {
		return "newsharvest/" + config.Version
	}
	i := f.next.Add(1) % int64(len(f.agents))
	return f.agents[i]
}

// decodeBody wraps r with the decoder for a Content-Encoding value. Closing
// the result releases the decoder, not r.
func decodeBody(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// RandomDelay jitters base by up to 25% either way.
func RandomDelay(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}
