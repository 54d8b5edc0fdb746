package validation

// SubmitProduct is a single product line in an order submission.
type SubmitProduct struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"required,gt=0"`
}

// SubmitOrderRequest is the payload for POST /orders. OrderID is optional;
// the handler assigns one when absent.
type SubmitOrderRequest struct {
	OrderID    string          `json:"orderId,omitempty"`
	CustomerID string          `json:"customerId" validate:"required"`
	Products   []SubmitProduct `json:"products" validate:"required,min=1,dive"`
}
