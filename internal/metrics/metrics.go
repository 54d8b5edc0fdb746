package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the order worker.
var (
	OrdersProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_processed_total",
			Help: "Total number of orders enriched and persisted",
		},
	)

	OrdersFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "Total number of orders that failed after lock acquisition",
		},
	)

	OrdersLockDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_lock_denied_total",
			Help: "Total number of deliveries skipped because the order was already in flight",
		},
	)

	OrdersAbandonedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_abandoned_total",
			Help: "Total number of orders abandoned after the retry ceiling",
		},
	)

	MalformedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "malformed_messages_total",
			Help: "Total number of queue payloads dropped because they failed to parse",
		},
	)

	LockReleaseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lock_release_failures_total",
			Help: "Total number of lock releases that removed no key or hit a store error",
		},
	)

	EnrichmentCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Total number of enrichment lookups served from cache",
		},
		[]string{"resource"},
	)

	EnrichmentCacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_misses_total",
			Help: "Total number of enrichment lookups that went to the remote provider",
		},
		[]string{"resource"},
	)

	OrderProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_processing_duration_seconds",
			Help:    "Duration of end-to-end order processing",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all worker metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		OrdersProcessedTotal,
		OrdersFailedTotal,
		OrdersLockDeniedTotal,
		OrdersAbandonedTotal,
		MalformedMessagesTotal,
		LockReleaseFailuresTotal,
		EnrichmentCacheHitsTotal,
		EnrichmentCacheMissesTotal,
		OrderProcessingDuration,
	)
}
