package pipeline

import (
	"errors"
	"fmt"
)

// ErrLockDenied means another worker already holds the lease for this order.
// Expected under concurrent delivery; never treated as a processing failure.
var ErrLockDenied = errors.New("order is already being processed")

// Validation failure reasons.
const (
	ReasonInactiveCustomer = "inactive customer"
	ReasonProductNotFound  = "product not found"
)

// ValidationError is a business-rule violation discovered after enrichment.
// Downstream it is handled exactly like an enrichment transport failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// PersistenceError wraps a document-store write failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
