package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrShippingInfoMissing = errors.New("shipping info missing")
)

// InsufficientStockError reports the first product whose stock cannot cover
// the requested quantity. Nothing is mutated when it is returned.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s: requested %d, available %d",
		e.Product, e.Requested, e.Available)
}

// InvalidTransitionError covers both moves absent from the transition table
// and no-op moves to the current status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}
