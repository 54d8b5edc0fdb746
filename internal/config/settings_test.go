package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "order-enrichment-worker", cfg.ServiceName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "orders", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, 3, cfg.Failure.MaxAttempts)
	assert.Equal(t, 3, cfg.Enrichment.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Enrichment.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Enrichment.Retry.MaxDelay)
	assert.Equal(t, 0.5, cfg.Enrichment.Retry.Jitter)
	assert.Equal(t, 0.5, cfg.Enrichment.Breaker.ErrorThreshold)
	assert.Equal(t, 8, cfg.Worker.MaxConcurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORDERS_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("ORDERS_ENRICHMENT_BASE_URL", "http://enrichment.internal:9000")
	t.Setenv("ORDERS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/123/orders")
	t.Setenv("ORDERS_FAILURE_MAX_ATTEMPTS", "5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "http://enrichment.internal:9000", cfg.Enrichment.BaseURL)
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/orders", cfg.Queue.URL)
	assert.Equal(t, 5, cfg.Failure.MaxAttempts)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	t.Setenv("ORDERS_FAILURE_MAX_ATTEMPTS", "0")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
