package failure

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ordersys/order-enrichment-worker/internal/redisx"
)

const (
	payloadKeyPrefix = "failed_order:"
	attemptKeyPrefix = "failed_attempts:"
)

// ErrAbandoned signals that an order has exhausted its retry ceiling and no
// further bookkeeping was performed for it.
var ErrAbandoned = errors.New("order abandoned: retry ceiling reached")

// Tracker records failed order payloads and their attempt counts in Redis.
// The raw payload is stored verbatim, never re-serialized from the domain
// model, so a manual replay reproduces the original queue message exactly.
type Tracker struct {
	redis       redisx.API
	maxAttempts int
}

// NewTracker returns a Tracker that abandons an order once maxAttempts
// failures have been recorded for it.
func NewTracker(client redisx.API, maxAttempts int) *Tracker {
	return &Tracker{
		redis:       client,
		maxAttempts: maxAttempts,
	}
}

// RecordFailure increments the attempt count for orderID and stores the raw
// payload alongside it in a single atomic write. Once the recorded count has
// reached the ceiling, the call leaves the prior state untouched and returns
// ErrAbandoned.
func (t *Tracker) RecordFailure(ctx context.Context, orderID, rawPayload string) error {
	current, err := t.GetAttemptCount(ctx, orderID)
	if err != nil {
		return fmt.Errorf("read attempt count for order %s: %w", orderID, err)
	}
	if current >= t.maxAttempts {
		return ErrAbandoned
	}

	next := current + 1
	err = t.redis.MSet(ctx,
		payloadKeyPrefix+orderID, rawPayload,
		attemptKeyPrefix+orderID, strconv.Itoa(next),
	).Err()
	if err != nil {
		return fmt.Errorf("store failure for order %s: %w", orderID, err)
	}
	return nil
}

// GetAttemptCount returns the number of recorded failures for orderID,
// defaulting to 0 when no counter exists.
func (t *Tracker) GetAttemptCount(ctx context.Context, orderID string) (int, error) {
	val, err := t.redis.Get(ctx, attemptKeyPrefix+orderID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt attempt counter for order %s: %w", orderID, err)
	}
	return count, nil
}

// GetFailedPayload returns the verbatim payload recorded for orderID, or
// ("", nil) when none exists. Used by replay tooling.
func (t *Tracker) GetFailedPayload(ctx context.Context, orderID string) (string, error) {
	val, err := t.redis.Get(ctx, payloadKeyPrefix+orderID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
