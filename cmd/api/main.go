package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ordersys/order-enrichment-worker/internal/aws"
	"github.com/ordersys/order-enrichment-worker/internal/config"
	"github.com/ordersys/order-enrichment-worker/internal/failure"
	"github.com/ordersys/order-enrichment-worker/internal/handlers"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
	"github.com/ordersys/order-enrichment-worker/internal/redisx"
	"github.com/ordersys/order-enrichment-worker/internal/telemetry"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrderRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.ServiceName)

	ctx := context.Background()

	clients, err := aws.NewClients(ctx)
	if err != nil {
		slog.Error("failed to create AWS clients", "error", err)
		os.Exit(1)
	}

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

	r := setupRouter(handlers.HandlerConfig{
		Publisher: aws.NewPublisher(clients.SQS, cfg.Queue.URL),
		Orders:    orders.NewStore(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection),
		Failures:  failure.NewTracker(rdb, cfg.Failure.MaxAttempts),
	})

	// if RUN_LOCAL is set to "true", run a local HTTP server for development
	if os.Getenv("RUN_LOCAL") == "true" {
		slog.Info("running local server", "addr", cfg.API.Addr)
		if err := r.Run(cfg.API.Addr); err != nil {
			slog.Error("failed to run local server", "error", err)
			os.Exit(1)
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
