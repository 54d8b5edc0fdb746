package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ordersys/order-enrichment-worker/internal/redisx"
)

const keyPrefix = "lock:"

// Manager hands out time-bounded exclusive leases keyed by order id.
// The TTL is the only recovery mechanism for a lock whose holder died:
// there is no owner identity and no fencing token, so a lease that outlives
// its holder is reclaimed silently once the TTL elapses.
type Manager struct {
	redis redisx.API
	ttl   time.Duration
}

// NewManager returns a Manager with the given lease TTL.
func NewManager(client redisx.API, ttl time.Duration) *Manager {
	return &Manager{
		redis: client,
		ttl:   ttl,
	}
}

// Acquire attempts an atomic create-if-absent write of the lock key with the
// configured TTL. It returns true only when this call created the key.
// A false return is not an error condition: it means another worker already
// owns the order.
func (m *Manager) Acquire(ctx context.Context, orderID string) (bool, error) {
	if orderID == "" {
		return false, fmt.Errorf("acquire lock: empty order id")
	}
	marker := uuid.NewString()
	created, err := m.redis.SetNX(ctx, keyPrefix+orderID, marker, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock for order %s: %w", orderID, err)
	}
	return created, nil
}

// Release deletes the lock key regardless of who holds it and reports whether
// a key was actually removed. Store errors are swallowed and mapped to false:
// a stuck lock self-expires via the TTL, so release never fails the caller.
func (m *Manager) Release(ctx context.Context, orderID string) bool {
	if orderID == "" {
		return false
	}
	deleted, err := m.redis.Del(ctx, keyPrefix+orderID).Result()
	if err != nil {
		slog.WarnContext(ctx, "lock release failed", "order_id", orderID, "error", err)
		return false
	}
	return deleted > 0
}
