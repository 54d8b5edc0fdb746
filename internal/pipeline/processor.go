package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ordersys/order-enrichment-worker/internal/enrichment"
	"github.com/ordersys/order-enrichment-worker/internal/metrics"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
)

// LockManager is the per-order lease used to serialize processing across
// workers.
type LockManager interface {
	Acquire(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string) bool
}

// Enricher resolves customer and product details, from cache or remote.
type Enricher interface {
	Customer(ctx context.Context, customerID string) (*enrichment.CustomerDetails, error)
	Product(ctx context.Context, productID string) (*enrichment.ProductDetails, error)
}

// OrderStore persists enriched orders.
type OrderStore interface {
	Save(ctx context.Context, order orders.Order) (*orders.Order, error)
}

// Processor runs one order through lock -> enrich -> validate -> persist.
type Processor struct {
	locks    LockManager
	enricher Enricher
	store    OrderStore
	tracer   trace.Tracer
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(locks LockManager, enricher Enricher, store OrderStore) *Processor {
	return &Processor{
		locks:    locks,
		enricher: enricher,
		store:    store,
		tracer:   otel.Tracer("order-enrichment-worker"),
	}
}

// ProcessOrder processes a single order message and returns the persisted
// order. Failure modes: ErrLockDenied when the order is already in flight,
// *enrichment.Error when a lookup fails hard, *ValidationError on a business
// rule violation, *PersistenceError on a store write failure. Once the lock
// has been acquired it is released on every exit path; the release outcome is
// observed but never escalates into the returned error.
func (p *Processor) ProcessOrder(ctx context.Context, msg orders.Message) (*orders.Order, error) {
	ctx, span := p.tracer.Start(ctx, "ProcessOrder", trace.WithAttributes(
		attribute.String("order.id", msg.OrderID),
		attribute.String("order.customer_id", msg.CustomerID),
		attribute.Int("order.product_count", len(msg.Products)),
	))
	defer span.End()

	order, err := p.process(ctx, msg)
	if err != nil && err != ErrLockDenied {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return order, err
}

func (p *Processor) process(ctx context.Context, msg orders.Message) (*orders.Order, error) {
	acquired, err := p.locks.Acquire(ctx, msg.OrderID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrLockDenied
	}

	defer func() {
		// release must run even when ctx is already done
		releaseCtx := context.WithoutCancel(ctx)
		if !p.locks.Release(releaseCtx, msg.OrderID) {
			metrics.LockReleaseFailuresTotal.Inc()
			slog.WarnContext(releaseCtx, "lock release removed no key", "order_id", msg.OrderID)
		}
	}()

	if len(msg.Products) == 0 {
		return nil, &ValidationError{Reason: ReasonProductNotFound}
	}

	// Both enrichments run concurrently and the group waits for both before
	// returning, so a failure in one never cancels the other; the first error
	// encountered is the one surfaced.
	var (
		customer *enrichment.CustomerDetails
		product  *enrichment.ProductDetails
		g        errgroup.Group
	)
	g.Go(func() error {
		var cerr error
		customer, cerr = p.enricher.Customer(ctx, msg.CustomerID)
		return cerr
	})
	g.Go(func() error {
		var perr error
		product, perr = p.enricher.Product(ctx, msg.Products[0].ProductID)
		return perr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !customer.Active {
		return nil, &ValidationError{Reason: ReasonInactiveCustomer}
	}
	if product == nil || product.ProductID == "" {
		return nil, &ValidationError{Reason: ReasonProductNotFound}
	}

	// products come from the inbound message, the customer id from the
	// enriched record
	order := orders.Order{
		OrderID:    msg.OrderID,
		CustomerID: customer.CustomerID,
		Products:   msg.Products,
	}
	saved, err := p.store.Save(ctx, order)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return saved, nil
}
