package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ordersys/order-enrichment-worker/internal/aws"
	"github.com/ordersys/order-enrichment-worker/internal/config"
	"github.com/ordersys/order-enrichment-worker/internal/enrichment"
	"github.com/ordersys/order-enrichment-worker/internal/failure"
	"github.com/ordersys/order-enrichment-worker/internal/lock"
	"github.com/ordersys/order-enrichment-worker/internal/metrics"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
	"github.com/ordersys/order-enrichment-worker/internal/pipeline"
	"github.com/ordersys/order-enrichment-worker/internal/redisx"
	"github.com/ordersys/order-enrichment-worker/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	metrics.Register()

	rdb, err := redisx.NewClient(ctx, cfg.Redis.Addr)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())

	store := orders.NewStore(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection)
	if err := store.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure mongodb indexes", "error", err)
		os.Exit(1)
	}

	enricher := enrichment.NewService(
		rdb,
		enrichment.NewClient(cfg.Enrichment.BaseURL, cfg.Enrichment.Timeout),
		enrichment.RetryPolicy{
			MaxAttempts: cfg.Enrichment.Retry.MaxAttempts,
			BaseDelay:   cfg.Enrichment.Retry.BaseDelay,
			MaxDelay:    cfg.Enrichment.Retry.MaxDelay,
			Jitter:      cfg.Enrichment.Retry.Jitter,
		},
		enrichment.BreakerPolicy{
			ErrorThreshold: cfg.Enrichment.Breaker.ErrorThreshold,
			MinRequests:    cfg.Enrichment.Breaker.MinRequests,
			Window:         cfg.Enrichment.Breaker.Window,
			OpenDuration:   cfg.Enrichment.Breaker.OpenDuration,
		},
	)

	processor := pipeline.NewProcessor(
		lock.NewManager(rdb, cfg.Lock.TTL),
		enricher,
		store,
	)
	tracker := failure.NewTracker(rdb, cfg.Failure.MaxAttempts)
	handler := NewHandler(processor, tracker, cfg.Worker.MaxConcurrency)

	if os.Getenv("RUN_LOCAL") == "true" {
		runLocal(ctx, cfg, handler)
		return
	}

	lambda.Start(handler.HandleSQSEvent)
}

// runLocal long-polls SQS directly and serves Prometheus metrics, for running
// the worker outside Lambda.
func runLocal(ctx context.Context, cfg *config.Settings, handler *Handler) {
	clients, err := aws.NewClients(ctx)
	if err != nil {
		slog.Error("failed to create AWS clients", "error", err)
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		slog.Info("serving metrics", "addr", cfg.Worker.MetricsAddr)
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()

	consumer := aws.NewConsumer(clients.SQS, cfg.Queue.URL, cfg.Queue.WaitTime, cfg.Queue.MaxMessages)
	slog.Info("starting local queue consumer", "queue_url", cfg.Queue.URL)
	if err := consumer.Run(ctx, handler.HandleBody); err != nil {
		slog.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}
