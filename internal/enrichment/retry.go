package enrichment

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryPolicy bounds the retry loop around a remote lookup. Jitter randomizes
// each delay so concurrent workers do not retry in lockstep.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// BreakerPolicy configures the per-resource circuit breaker: once the error
// rate over the rolling window crosses ErrorThreshold (with at least
// MinRequests observed), calls short-circuit for OpenDuration.
type BreakerPolicy struct {
	ErrorThreshold float64
	MinRequests    uint32
	Window         time.Duration
	OpenDuration   time.Duration
}

func newBreaker(name string, p BreakerPolicy) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: p.Window,
		Timeout:  p.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < p.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= p.ErrorThreshold
		},
	})
}

// retryFetch runs op under the policy's exponential backoff, giving up after
// MaxAttempts total attempts or when ctx is done.
func retryFetch[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	var retries uint64
	if p.MaxAttempts > 1 {
		retries = uint64(p.MaxAttempts - 1)
	}
	return backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}
