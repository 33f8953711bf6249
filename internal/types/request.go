package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request is a single page fetch issued by an extraction backend. Every
// fetch is a GET.
type Request struct {
	URL *url.URL

	// Headers are sent on top of the fetcher's browser-like defaults.
	Headers http.Header

	// Timeout overrides the fetcher's default when positive.
	Timeout time.Duration

	// SourceURL is the homepage the page was discovered from. It is the
	// homepage itself for homepage fetches.
	SourceURL string
}

// NewRequest creates a request for an absolute http(s) URL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidURL, rawURL)
	}
	return &Request{URL: u, Headers: make(http.Header)}, nil
}

func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
