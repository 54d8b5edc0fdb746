package enrichment

import (
	"errors"
	"fmt"
)

// Resource kinds handled by the enrichment layer.
const (
	ResourceCustomer = "customer"
	ResourceProduct  = "product"
)

// CustomerDetails is the customer record returned by the customer provider.
// Transient: cached but never persisted on its own.
type CustomerDetails struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Active     bool   `json:"active"`
}

// ProductDetails is the product record returned by the product provider.
type ProductDetails struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ErrCacheCorrupt marks a cached payload that failed to deserialize. A cache
// hit is trusted, so a corrupt entry fails the enrichment outright instead of
// falling through to the remote call.
var ErrCacheCorrupt = errors.New("corrupt cached payload")

// Error is the typed failure surfaced when an enrichment lookup exhausts its
// retries, hits an open breaker, or reads a corrupt cache entry. The pipeline
// treats it as a hard failure for the order; no partial or default data is
// ever substituted.
type Error struct {
	Resource string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrich %s: %v", e.Resource, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
