// Package annotate obtains sentiment, summary and relevance labels for
// article content from a chat-completion endpoint, or from a local
// rule-based mock.
package annotate

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/newsharvest/internal/config"
)

// Annotation holds validated, localized labels for one article.
type Annotation struct {
	Sentiment string `json:"sentiment"`
	Summary   string `json:"summary"`
	Relevant  string `json:"relevant"`
}

// Annotator labels article content.
type Annotator interface {
	Annotate(ctx context.Context, content string) (*Annotation, error)
}

// Observer receives call-level measurements. *observability.Metrics implements it.
type Observer interface {
	AnnotationRetried()
	ObserveLLMCall(d time.Duration)
}

// New returns the mock annotator when the endpoint is "mock", and an HTTP
// client otherwise. The limiter is shared by every call the client makes.
func New(cfg config.AnnotationConfig, keywords []string, limiter *RateLimiter, obs Observer, logger *slog.Logger) Annotator {
	if cfg.IsMock() {
		logger.Info("using mock annotator")
		return NewMockAnnotator(keywords)
	}
	return NewClient(
		ClientConfig{
			Endpoint:    cfg.Endpoint,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		},
		limiter,
		DefaultRetryPolicy(cfg.MaxAttempts),
		logger,
		WithObserver(obs),
	)
}
