package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ordersys/order-enrichment-worker/internal/aws"
	"github.com/ordersys/order-enrichment-worker/internal/failure"
	"github.com/ordersys/order-enrichment-worker/internal/orders"
	"github.com/ordersys/order-enrichment-worker/internal/validation"
)

// HandlerConfig groups dependencies for the order routes.
type HandlerConfig struct {
	Publisher *aws.Publisher
	Orders    *orders.Store
	Failures  *failure.Tracker
}

// RegisterOrderRoutes registers the ingest and ops routes.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	// ingest: validate and enqueue for the worker
	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.SubmitOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		orderID := req.OrderID
		if orderID == "" {
			orderID = uuid.NewString()
		}

		msg := orders.Message{
			OrderID:    orderID,
			CustomerID: req.CustomerID,
		}
		for _, p := range req.Products {
			msg.Products = append(msg.Products, orders.ProductRef{
				ProductID: p.ProductID,
				Name:      p.Name,
				Price:     p.Price,
			})
		}
		body, err := json.Marshal(msg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "marshal_failed", "detail": err.Error()})
			return
		}

		attrs := map[string]string{
			"order_id":       orderID,
			"correlation_id": c.GetHeader("X-Request-Id"),
		}
		if err := cfg.Publisher.SendOrderMessage(ctx, string(body), attrs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"orderId": orderID, "status": "QUEUED"})
	})

	// ops: read back a persisted order
	r.GET("/orders/:orderId", func(c *gin.Context) {
		order, err := cfg.Orders.GetByOrderID(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed", "detail": err.Error()})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	// ops: inspect the failure bookkeeping for an order
	r.GET("/failures/:orderId", func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("orderId")

		count, err := cfg.Failures.GetAttemptCount(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed", "detail": err.Error()})
			return
		}
		payload, err := cfg.Failures.GetFailedPayload(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed", "detail": err.Error()})
			return
		}
		if count == 0 && payload == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no_failure_record"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orderId":      orderID,
			"attemptCount": count,
			"payload":      payload,
		})
	})

	// ops: re-enqueue the verbatim payload recorded for a failed order
	r.POST("/failures/:orderId/replay", func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("orderId")

		payload, err := cfg.Failures.GetFailedPayload(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed", "detail": err.Error()})
			return
		}
		if payload == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no_failure_record"})
			return
		}

		attrs := map[string]string{
			"order_id":       orderID,
			"replay":         "true",
			"correlation_id": c.GetHeader("X-Request-Id"),
		}
		if err := cfg.Publisher.SendOrderMessage(ctx, payload, attrs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"orderId": orderID, "status": "REPLAYED"})
	})
}
