package types

import (
	"bytes"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched page.
type Response struct {
	Request    *Request
	StatusCode int
	Header     http.Header
	// Body is the decoded page. It is cut at the fetcher's size cap.
	Body []byte
	// FinalURL is where redirects, or client-side navigation, ended up.
	FinalURL string

	doc *goquery.Document
}

// NewResponse creates a Response. An empty finalURL falls back to the
// request URL.
func NewResponse(req *Request, status int, header http.Header, body []byte, finalURL string) *Response {
	if finalURL == "" {
		finalURL = req.URLString()
	}
	if header == nil {
		header = make(http.Header)
	}
	return &Response{
		Request:    req,
		StatusCode: status,
		Header:     header,
		Body:       body,
		FinalURL:   finalURL,
	}
}

// Document parses Body once and caches the result.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
