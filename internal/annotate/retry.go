package annotate

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/IshaanNene/newsharvest/internal/types"
)

// RetryPolicy decides whether and when a failed call is attempted again.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// NewBackOff returns a fresh wait schedule for one Annotate call.
	NewBackOff func() backoff.BackOff
	// Retryable reports whether err may succeed on another attempt.
	Retryable func(err error) bool
}

// DefaultRetryPolicy retries transport failures with exponential backoff.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		NewBackOff:  NewExponentialBackOff,
		Retryable:   IsTransportError,
	}
}

// NewExponentialBackOff waits about 1s, 2s, 4s and so on, capped at a
// minute, with 5% jitter.
func NewExponentialBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.05
	bo.MaxInterval = time.Minute
	return bo
}

// IsTransportError reports whether err is a retryable annotation failure.
// Cancellation of the caller's context is never retryable.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var ae *types.AnnotationError
	if errors.As(err, &ae) {
		return ae.IsRetryable()
	}
	return false
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.NewBackOff == nil {
		p.NewBackOff = NewExponentialBackOff
	}
	if p.Retryable == nil {
		p.Retryable = IsTransportError
	}
	return p
}
