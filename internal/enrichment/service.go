package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/ordersys/order-enrichment-worker/internal/metrics"
	"github.com/ordersys/order-enrichment-worker/internal/redisx"
)

const (
	customerKeyPrefix = "customer:"
	productKeyPrefix  = "product:"
)

// Service performs cache-aside enrichment lookups against the customer and
// product providers. A cache hit is returned as-is; a miss goes to the remote
// provider through a retry loop and a per-resource circuit breaker, and the
// result is written back to the cache with no expiry. Staleness is the
// accepted trade-off: the cache is only ever written from provider responses.
type Service struct {
	redis           redisx.API
	client          *Client
	retry           RetryPolicy
	customerBreaker *gobreaker.CircuitBreaker
	productBreaker  *gobreaker.CircuitBreaker
}

// NewService wires a Service with one breaker per resource kind so a failing
// product provider cannot open the customer path.
func NewService(client redisx.API, remote *Client, retry RetryPolicy, breaker BreakerPolicy) *Service {
	return &Service{
		redis:           client,
		client:          remote,
		retry:           retry,
		customerBreaker: newBreaker("customer-provider", breaker),
		productBreaker:  newBreaker("product-provider", breaker),
	}
}

// Customer returns customer details for customerID, from cache when possible.
func (s *Service) Customer(ctx context.Context, customerID string) (*CustomerDetails, error) {
	cacheKey := customerKeyPrefix + customerID

	cached, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		metrics.EnrichmentCacheHitsTotal.WithLabelValues(ResourceCustomer).Inc()
		var details CustomerDetails
		if uerr := json.Unmarshal([]byte(cached), &details); uerr != nil {
			return nil, &Error{Resource: ResourceCustomer, Err: fmt.Errorf("%w: %v", ErrCacheCorrupt, uerr)}
		}
		return &details, nil
	}
	if err != redis.Nil {
		return nil, &Error{Resource: ResourceCustomer, Err: fmt.Errorf("cache read: %w", err)}
	}
	metrics.EnrichmentCacheMissesTotal.WithLabelValues(ResourceCustomer).Inc()

	result, err := s.customerBreaker.Execute(func() (interface{}, error) {
		return retryFetch(ctx, s.retry, func() (*CustomerDetails, error) {
			return s.client.Customer(ctx, customerID)
		})
	})
	if err != nil {
		return nil, &Error{Resource: ResourceCustomer, Err: err}
	}
	details := result.(*CustomerDetails)

	s.writeBack(ctx, ResourceCustomer, cacheKey, details)
	return details, nil
}

// Product returns product details for productID, from cache when possible.
func (s *Service) Product(ctx context.Context, productID string) (*ProductDetails, error) {
	cacheKey := productKeyPrefix + productID

	cached, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		metrics.EnrichmentCacheHitsTotal.WithLabelValues(ResourceProduct).Inc()
		var details ProductDetails
		if uerr := json.Unmarshal([]byte(cached), &details); uerr != nil {
			return nil, &Error{Resource: ResourceProduct, Err: fmt.Errorf("%w: %v", ErrCacheCorrupt, uerr)}
		}
		return &details, nil
	}
	if err != redis.Nil {
		return nil, &Error{Resource: ResourceProduct, Err: fmt.Errorf("cache read: %w", err)}
	}
	metrics.EnrichmentCacheMissesTotal.WithLabelValues(ResourceProduct).Inc()

	result, err := s.productBreaker.Execute(func() (interface{}, error) {
		return retryFetch(ctx, s.retry, func() (*ProductDetails, error) {
			return s.client.Product(ctx, productID)
		})
	})
	if err != nil {
		return nil, &Error{Resource: ResourceProduct, Err: err}
	}
	details := result.(*ProductDetails)

	s.writeBack(ctx, ResourceProduct, cacheKey, details)
	return details, nil
}

// writeBack populates the cache after a remote success. A failed write is
// logged and otherwise ignored: the caller already holds the fresh data and
// the next miss will simply fetch again.
func (s *Service) writeBack(ctx context.Context, resource, key string, value interface{}) {
	serialized, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "enrichment cache serialize failed", "resource", resource, "error", err)
		return
	}
	if err := s.redis.Set(ctx, key, string(serialized), 0).Err(); err != nil {
		slog.WarnContext(ctx, "enrichment cache write failed", "resource", resource, "error", err)
	}
}
