package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUsable(t *testing.T) {
	long := strings.Repeat("a", MinContentLength)

	tests := []struct {
		name     string
		article  *Article
		expected bool
	}{
		{"nil", nil, false},
		{"empty", &Article{}, false},
		{"no headline", &Article{Content: long}, false},
		{"blank headline", &Article{Headline: "   ", Content: long}, false},
		{"short content", &Article{Headline: "h", Content: long[:MinContentLength-1]}, false},
		{"exact minimum", &Article{Headline: "h", Content: long}, true},
		{"padded short content", &Article{Headline: "h", Content: "  " + long[:MinContentLength-1] + "  "}, false},
		{"multibyte content", &Article{Headline: "h", Content: strings.Repeat("芯", MinContentLength)}, true},
	}

	for _, tt := range tests {
		if got := Usable(tt.article); got != tt.expected {
			t.Errorf("%s: Usable = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestFilterUsableIdempotent(t *testing.T) {
	long := strings.Repeat("x", 250)
	in := []*Article{
		{Headline: "a", Content: long},
		{Headline: "", Content: long},
		{Headline: "c", Content: "short"},
		{Headline: "d", Content: long},
	}

	once := FilterUsable(in)
	if len(once) != 2 {
		t.Fatalf("expected 2 usable articles, got %d", len(once))
	}
	twice := FilterUsable(once)
	if len(twice) != len(once) {
		t.Fatalf("second filter changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("article %d changed between passes", i)
		}
	}
}

func TestSetStatusIsTerminal(t *testing.T) {
	a := &Article{Headline: "h"}
	if !a.SetStatus(StatusLowQuality, SentimentNeutral, "skip", RelevantNo) {
		t.Fatal("first SetStatus should succeed")
	}
	if a.SetStatus(StatusSuccess, SentimentPositive, "other", RelevantYes) {
		t.Fatal("second SetStatus should be rejected")
	}
	if a.ProcessingStatus != StatusLowQuality || a.Summary != "skip" {
		t.Errorf("status was revised: %+v", a)
	}
}

func TestNormalizeEnums(t *testing.T) {
	sentiments := map[string]string{
		"positive": SentimentPositive,
		"Neutral":  SentimentNeutral,
		" 利弊 ":     SentimentNegative,
		"利好":       SentimentPositive,
	}
	for in, want := range sentiments {
		got, ok := NormalizeSentiment(in)
		if !ok || got != want {
			t.Errorf("NormalizeSentiment(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := NormalizeSentiment("mixed"); ok {
		t.Error("mixed should not be accepted")
	}

	if got, ok := NormalizeRelevant("YES"); !ok || got != RelevantYes {
		t.Errorf("NormalizeRelevant(YES) = %q, %v", got, ok)
	}
	if got, ok := NormalizeRelevant("否"); !ok || got != RelevantNo {
		t.Errorf("NormalizeRelevant(否) = %q, %v", got, ok)
	}
	if _, ok := NormalizeRelevant("maybe"); ok {
		t.Error("maybe should not be accepted")
	}
}

func TestAnnotationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("call: %w", &AnnotationError{Kind: KindMalformed, Attempts: 1, Err: ErrEmptyResponse})

	var annErr *AnnotationError
	if !errors.As(err, &annErr) {
		t.Fatal("expected AnnotationError in chain")
	}
	if annErr.IsRetryable() {
		t.Error("malformed output must not be retryable")
	}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Error("expected ErrEmptyResponse in chain")
	}
}

func TestNewRequestRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "/relative", "http://"} {
		if _, err := NewRequest(raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("NewRequest(%q) err = %v, want ErrInvalidURL", raw, err)
		}
	}
	req, err := NewRequest("https://news.example.com/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URLString() != "https://news.example.com/a" {
		t.Errorf("URLString = %q", req.URLString())
	}
}
