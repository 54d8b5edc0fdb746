package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/ordersys/order-enrichment-worker/internal/failure"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
	"github.com/ordersys/order-enrichment-worker/internal/pipeline"
)

type fakeProcessor struct {
	mu     sync.Mutex
	calls  []orders.Message
	err    error
	result *orders.Order
}

func (f *fakeProcessor) ProcessOrder(_ context.Context, msg orders.Message) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &orders.Order{OrderID: msg.OrderID, CustomerID: msg.CustomerID}, nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTracker struct {
	mu       sync.Mutex
	recorded map[string]string
	err      error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{recorded: make(map[string]string)}
}

func (f *fakeTracker) RecordFailure(_ context.Context, orderID, rawPayload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[orderID] = rawPayload
	return f.err
}

func TestHandleBodySuccess(t *testing.T) {
	proc := &fakeProcessor{}
	tracker := newFakeTracker()
	h := NewHandler(proc, tracker, 4)

	h.HandleBody(context.Background(), `{"orderId":"order-123","customerId":"customer-456","products":[{"productId":"product-789","name":"Widget","price":9.99}]}`)

	if got := proc.callCount(); got != 1 {
		t.Fatalf("expected 1 pipeline call, got %d", got)
	}
	if proc.calls[0].OrderID != "order-123" {
		t.Errorf("expected orderId order-123, got %q", proc.calls[0].OrderID)
	}
	if len(tracker.recorded) != 0 {
		t.Errorf("expected no failure recorded on success, got %v", tracker.recorded)
	}
}

func TestHandleBodyMalformedPayloadDropped(t *testing.T) {
	proc := &fakeProcessor{}
	tracker := newFakeTracker()
	h := NewHandler(proc, tracker, 4)

	h.HandleBody(context.Background(), `{not json`)

	if got := proc.callCount(); got != 0 {
		t.Errorf("expected pipeline untouched for malformed payload, got %d calls", got)
	}
	if len(tracker.recorded) != 0 {
		t.Errorf("expected no failure recorded for malformed payload, got %v", tracker.recorded)
	}
}

func TestHandleBodyLockDeniedSkipsTracker(t *testing.T) {
	proc := &fakeProcessor{err: pipeline.ErrLockDenied}
	tracker := newFakeTracker()
	h := NewHandler(proc, tracker, 4)

	h.HandleBody(context.Background(), `{"orderId":"order-123","customerId":"customer-456","products":[]}`)

	if len(tracker.recorded) != 0 {
		t.Errorf("lock-denied delivery must not count as a failure, recorded %v", tracker.recorded)
	}
}

func TestHandleBodyFailureRecordsVerbatimPayload(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("provider unavailable")}
	tracker := newFakeTracker()
	h := NewHandler(proc, tracker, 4)

	raw := `{"orderId":"order-123","customerId":"customer-456","products":[{"productId":"product-789","name":"Widget","price":9.99}]}`
	h.HandleBody(context.Background(), raw)

	got, ok := tracker.recorded["order-123"]
	if !ok {
		t.Fatal("expected failure recorded for order-123")
	}
	if got != raw {
		t.Errorf("expected verbatim payload recorded\nwant: %s\ngot:  %s", raw, got)
	}
}

func TestHandleBodyAbandonedOrder(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("provider unavailable")}
	tracker := newFakeTracker()
	tracker.err = failure.ErrAbandoned
	h := NewHandler(proc, tracker, 4)

	// must not panic or retry once the ceiling is reached
	h.HandleBody(context.Background(), `{"orderId":"order-123","customerId":"customer-456","products":[]}`)

	if got := proc.callCount(); got != 1 {
		t.Errorf("expected exactly 1 pipeline call, got %d", got)
	}
}

func TestHandleSQSEventProcessesBatchAndSwallowsErrors(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("provider unavailable")}
	tracker := newFakeTracker()
	h := NewHandler(proc, tracker, 2)

	ev := events.SQSEvent{Records: []events.SQSMessage{
		{Body: `{"orderId":"order-1","customerId":"c-1","products":[]}`},
		{Body: `{"orderId":"order-2","customerId":"c-2","products":[]}`},
		{Body: `{not json`},
	}}

	if err := h.HandleSQSEvent(context.Background(), ev); err != nil {
		t.Fatalf("batch handler must not surface errors, got %v", err)
	}
	if got := proc.callCount(); got != 2 {
		t.Errorf("expected 2 pipeline calls (malformed record dropped), got %d", got)
	}
	if len(tracker.recorded) != 2 {
		t.Errorf("expected 2 failures recorded, got %v", tracker.recorded)
	}
}
