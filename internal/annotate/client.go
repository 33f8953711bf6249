package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/IshaanNene/newsharvest/internal/types"
)

const maxResponseSize = 4 * 1024 * 1024

// ClientConfig holds the endpoint settings for Client.
type ClientConfig struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

// Client calls a chat-completion endpoint.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	limiter  *RateLimiter
	policy   RetryPolicy
	observer Observer
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithObserver attaches a measurement sink.
func WithObserver(obs Observer) ClientOption {
	return func(c *Client) { c.observer = obs }
}

// NewClient creates a Client. limiter may be nil to disable rate limiting.
func NewClient(cfg ClientConfig, limiter *RateLimiter, policy RetryPolicy, logger *slog.Logger, opts ...ClientOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: limiter,
		policy:  policy.normalized(),
		logger:  logger.With("component", "llm_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Annotate sends content to the model and validates the answer. Transport
// failures are retried under the client's policy; malformed or rejected
// responses end the call immediately. Failures are *types.AnnotationError.
func (c *Client) Annotate(ctx context.Context, content string) (*Annotation, error) {
	attempts := 0
	permanent := false

	operation := func() (*Annotation, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			permanent = true
			return nil, backoff.Permanent(&types.AnnotationError{Kind: types.KindTransport, Attempts: attempts, Err: err})
		}
		attempts++

		ann, err := c.call(ctx, content)
		if err == nil {
			return ann, nil
		}
		var ae *types.AnnotationError
		if !errors.As(err, &ae) {
			ae = &types.AnnotationError{Kind: types.KindTransport, Err: err}
		}
		ae.Attempts = attempts

		if !c.policy.Retryable(ae) || ctx.Err() != nil {
			permanent = true
			c.logger.Error("annotation failed", "kind", ae.Kind, "attempt", attempts, "error", ae.Err)
			return nil, backoff.Permanent(ae)
		}
		return nil, ae
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Warn("annotation attempt failed, retrying",
			"attempt", attempts,
			"max_attempts", c.policy.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if c.observer != nil {
			c.observer.AnnotationRetried()
		}
	}

	ann, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.policy.NewBackOff()),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return ann, nil
	}

	var ae *types.AnnotationError
	if !errors.As(err, &ae) {
		// Cancelled while waiting between attempts.
		return nil, &types.AnnotationError{Kind: types.KindTransport, Attempts: attempts, Err: err}
	}
	if !permanent && attempts >= c.policy.MaxAttempts {
		c.logger.Error("annotation retries exhausted", "attempts", attempts, "error", ae.Err)
		ae.Err = fmt.Errorf("%w: %w", types.ErrMaxRetries, ae.Err)
	}
	return nil, ae
}

// call performs one HTTP round trip and classifies its failure.
func (c *Client) call(ctx context.Context, content string) (*Annotation, error) {
	payload, err := json.Marshal(newChatRequest(c.cfg.Model, c.cfg.Temperature, content))
	if err != nil {
		return nil, &types.AnnotationError{Kind: types.KindRejected, Err: fmt.Errorf("encode request: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &types.AnnotationError{Kind: types.KindRejected, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		c.observer.ObserveLLMCall(time.Since(start))
	}
	if err != nil {
		return nil, &types.AnnotationError{Kind: types.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &types.AnnotationError{Kind: types.KindTransport, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &types.AnnotationError{Kind: types.KindTransport, Err: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &types.AnnotationError{Kind: types.KindRejected, Err: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	}

	ann, err := ParseResponse(body)
	if err != nil {
		return nil, &types.AnnotationError{Kind: types.KindMalformed, Err: err}
	}
	return ann, nil
}
