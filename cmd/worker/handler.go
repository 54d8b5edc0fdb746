package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/sync/errgroup"

	"github.com/ordersys/order-enrichment-worker/internal/failure"
	"github.com/ordersys/order-enrichment-worker/internal/metrics"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
	"github.com/ordersys/order-enrichment-worker/internal/pipeline"
)

// OrderProcessor runs one parsed order through the pipeline.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, msg orders.Message) (*orders.Order, error)
}

// FailureTracker records a failed delivery's raw payload.
type FailureTracker interface {
	RecordFailure(ctx context.Context, orderID, rawPayload string) error
}

// Handler consumes order payloads and drives the pipeline. Batch records are
// processed as independent tasks under a concurrency bound; ordering across
// orders is not preserved.
type Handler struct {
	processor      OrderProcessor
	tracker        FailureTracker
	maxConcurrency int
}

// NewHandler creates a worker handler.
func NewHandler(processor OrderProcessor, tracker FailureTracker, maxConcurrency int) *Handler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Handler{
		processor:      processor,
		tracker:        tracker,
		maxConcurrency: maxConcurrency,
	}
}

// HandleSQSEvent processes a Lambda SQS batch. It always returns nil:
// failed orders are recorded by the failure tracker, and handing an error
// back to the runtime would re-drive the whole batch against the tracker's
// own retry ceiling.
func (h *Handler) HandleSQSEvent(ctx context.Context, ev events.SQSEvent) error {
	var g errgroup.Group
	g.SetLimit(h.maxConcurrency)
	for _, rec := range ev.Records {
		body := rec.Body
		g.Go(func() error {
			h.HandleBody(ctx, body)
			return nil
		})
	}
	return g.Wait()
}

// HandleBody processes one raw message body. Shared by the Lambda path and
// the long-poll consumer.
func (h *Handler) HandleBody(ctx context.Context, raw string) {
	start := time.Now()

	var msg orders.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		metrics.MalformedMessagesTotal.Inc()
		slog.WarnContext(ctx, "dropping malformed order payload", "error", err)
		return
	}

	order, err := h.processor.ProcessOrder(ctx, msg)
	switch {
	case err == nil:
		metrics.OrdersProcessedTotal.Inc()
		metrics.OrderProcessingDuration.Observe(time.Since(start).Seconds())
		slog.InfoContext(ctx, "order persisted",
			"order_id", msg.OrderID, "document_id", order.ID.Hex())

	case errors.Is(err, pipeline.ErrLockDenied):
		// another worker owns this order; not a failure
		metrics.OrdersLockDeniedTotal.Inc()
		slog.InfoContext(ctx, "order already in flight, skipping", "order_id", msg.OrderID)

	default:
		metrics.OrdersFailedTotal.Inc()
		slog.ErrorContext(ctx, "order processing failed",
			"order_id", msg.OrderID, "error", err)
		if rerr := h.tracker.RecordFailure(ctx, msg.OrderID, raw); rerr != nil {
			if errors.Is(rerr, failure.ErrAbandoned) {
				metrics.OrdersAbandonedTotal.Inc()
				slog.WarnContext(ctx, "order abandoned after retry ceiling", "order_id", msg.OrderID)
			} else {
				slog.ErrorContext(ctx, "recording failure failed",
					"order_id", msg.OrderID, "error", rerr)
			}
		}
	}
}
