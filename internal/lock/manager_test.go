package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// mockRedis is a minimal in-memory stand-in for the Redis commands the
// Manager uses. It ignores TTLs; expiry is the store's concern, not ours.
type mockRedis struct {
	mu     sync.Mutex
	keys   map[string]string
	delErr error
	setErr error
}

func newMockRedis() *mockRedis {
	return &mockRedis{keys: map[string]string{}}
}

func (m *mockRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return redis.NewBoolResult(false, m.setErr)
	}
	if _, ok := m.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockRedis) MSet(ctx context.Context, values ...interface{}) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i+1 < len(values); i += 2 {
		m.keys[values[i].(string)] = values[i+1].(string)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return redis.NewIntResult(0, m.delErr)
	}
	var deleted int64
	for _, k := range keys {
		if _, ok := m.keys[k]; ok {
			delete(m.keys, k)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

func TestAcquire_FirstWinsSecondDenied(t *testing.T) {
	mock := newMockRedis()
	mgr := NewManager(mock, 5*time.Minute)
	ctx := context.Background()

	acquired, err := mgr.Acquire(ctx, "order-123")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if !acquired {
		t.Fatalf("expected first acquire to succeed")
	}

	acquired2, err := mgr.Acquire(ctx, "order-123")
	if err != nil {
		t.Fatalf("second Acquire error: %v", err)
	}
	if acquired2 {
		t.Fatalf("expected second acquire to be denied")
	}

	// a different order is unaffected
	other, err := mgr.Acquire(ctx, "order-456")
	if err != nil {
		t.Fatalf("Acquire other order error: %v", err)
	}
	if !other {
		t.Fatalf("expected acquire for unrelated order to succeed")
	}
}

func TestAcquire_ConcurrentSameOrder(t *testing.T) {
	mock := newMockRedis()
	mgr := NewManager(mock, 5*time.Minute)
	ctx := context.Background()

	const n = 16
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := mgr.Acquire(ctx, "order-123")
			if err != nil {
				t.Errorf("Acquire error: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestRelease(t *testing.T) {
	mock := newMockRedis()
	mgr := NewManager(mock, 5*time.Minute)
	ctx := context.Background()

	if _, err := mgr.Acquire(ctx, "order-123"); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	if !mgr.Release(ctx, "order-123") {
		t.Fatalf("expected release of held lock to return true")
	}

	// releasing again: no key left to delete
	if mgr.Release(ctx, "order-123") {
		t.Fatalf("expected release of missing lock to return false")
	}

	// lock can be re-acquired after release
	acquired, err := mgr.Acquire(ctx, "order-123")
	if err != nil {
		t.Fatalf("re-Acquire error: %v", err)
	}
	if !acquired {
		t.Fatalf("expected re-acquire after release to succeed")
	}
}

func TestRelease_EmptyOrderID(t *testing.T) {
	mgr := NewManager(newMockRedis(), 5*time.Minute)
	if mgr.Release(context.Background(), "") {
		t.Fatalf("expected release with empty order id to return false")
	}
}

func TestRelease_StoreErrorMapsToFalse(t *testing.T) {
	mock := newMockRedis()
	mock.delErr = errors.New("connection refused")
	mgr := NewManager(mock, 5*time.Minute)

	if mgr.Release(context.Background(), "order-123") {
		t.Fatalf("expected release to swallow store error and return false")
	}
}

func TestAcquire_StoreErrorSurfaces(t *testing.T) {
	mock := newMockRedis()
	mock.setErr = errors.New("connection refused")
	mgr := NewManager(mock, 5*time.Minute)

	acquired, err := mgr.Acquire(context.Background(), "order-123")
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if acquired {
		t.Fatalf("expected acquired=false on store error")
	}
}
