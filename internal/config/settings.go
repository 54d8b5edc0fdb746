package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings is the full configuration of the worker and the ops API.
type Settings struct {
	ServiceName string             `mapstructure:"service_name" validate:"required"`
	Queue       QueueSettings      `mapstructure:"queue"`
	Redis       RedisSettings      `mapstructure:"redis"`
	Mongo       MongoSettings      `mapstructure:"mongo"`
	Enrichment  EnrichmentSettings `mapstructure:"enrichment"`
	Lock        LockSettings       `mapstructure:"lock"`
	Failure     FailureSettings    `mapstructure:"failure"`
	Worker      WorkerSettings     `mapstructure:"worker"`
	API         APISettings        `mapstructure:"api"`
}

// QueueSettings configures the SQS consumer/publisher.
type QueueSettings struct {
	URL         string        `mapstructure:"url"`
	WaitTime    time.Duration `mapstructure:"wait_time" validate:"min=0"`
	MaxMessages int32         `mapstructure:"max_messages" validate:"min=1,max=10"`
}

type RedisSettings struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type MongoSettings struct {
	URI        string `mapstructure:"uri" validate:"required"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
}

// EnrichmentSettings covers the provider endpoint and the resilience policies
// around it.
type EnrichmentSettings struct {
	BaseURL string          `mapstructure:"base_url" validate:"required"`
	Timeout time.Duration   `mapstructure:"timeout" validate:"required"`
	Retry   RetrySettings   `mapstructure:"retry"`
	Breaker BreakerSettings `mapstructure:"breaker"`
}

type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"required"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"required"`
	Jitter      float64       `mapstructure:"jitter" validate:"gte=0,lte=1"`
}

type BreakerSettings struct {
	ErrorThreshold float64       `mapstructure:"error_threshold" validate:"gt=0,lte=1"`
	MinRequests    uint32        `mapstructure:"min_requests" validate:"min=1"`
	Window         time.Duration `mapstructure:"window" validate:"required"`
	OpenDuration   time.Duration `mapstructure:"open_duration" validate:"required"`
}

type LockSettings struct {
	TTL time.Duration `mapstructure:"ttl" validate:"required"`
}

type FailureSettings struct {
	MaxAttempts int `mapstructure:"max_attempts" validate:"min=1"`
}

type WorkerSettings struct {
	MaxConcurrency int    `mapstructure:"max_concurrency" validate:"min=1"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
}

type APISettings struct {
	Addr string `mapstructure:"addr"`
}

func (s *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// Load reads the optional YAML config file at path (a directory containing
// worker.yaml) and applies ORDERS_-prefixed environment overrides, e.g.
// ORDERS_REDIS_ADDR or ORDERS_ENRICHMENT_BASE_URL.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetConfigName("worker")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// no file is fine, env and defaults carry the config
	}

	v.SetEnvPrefix("ORDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	cfg := &Settings{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-enrichment-worker")
	v.SetDefault("queue.wait_time", 20*time.Second)
	v.SetDefault("queue.max_messages", 10)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "orders")
	v.SetDefault("mongo.collection", "orders")
	v.SetDefault("enrichment.base_url", "http://localhost:8081")
	v.SetDefault("enrichment.timeout", 5*time.Second)
	v.SetDefault("enrichment.retry.max_attempts", 3)
	v.SetDefault("enrichment.retry.base_delay", 2*time.Second)
	v.SetDefault("enrichment.retry.max_delay", 10*time.Second)
	v.SetDefault("enrichment.retry.jitter", 0.5)
	v.SetDefault("enrichment.breaker.error_threshold", 0.5)
	v.SetDefault("enrichment.breaker.min_requests", 5)
	v.SetDefault("enrichment.breaker.window", time.Minute)
	v.SetDefault("enrichment.breaker.open_duration", 30*time.Second)
	v.SetDefault("lock.ttl", 5*time.Minute)
	v.SetDefault("failure.max_attempts", 3)
	v.SetDefault("worker.max_concurrency", 8)
	v.SetDefault("worker.metrics_addr", ":2112")
	v.SetDefault("api.addr", ":8080")
}

// bindEnvKeys binds nested keys explicitly so env-only deployments map
// correctly without a config file present.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"service_name",
		"queue.url",
		"queue.wait_time",
		"queue.max_messages",
		"redis.addr",
		"mongo.uri",
		"mongo.database",
		"mongo.collection",
		"enrichment.base_url",
		"enrichment.timeout",
		"enrichment.retry.max_attempts",
		"enrichment.retry.base_delay",
		"enrichment.retry.max_delay",
		"enrichment.retry.jitter",
		"enrichment.breaker.error_threshold",
		"enrichment.breaker.min_requests",
		"enrichment.breaker.window",
		"enrichment.breaker.open_duration",
		"lock.ttl",
		"failure.max_attempts",
		"worker.max_concurrency",
		"worker.metrics_addr",
		"api.addr",
	} {
		_ = v.BindEnv(key)
	}
}
