package ledger

import "fmt"

// ProductNotFoundError reports a product id that does not resolve.
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product not found with id: %d", e.ID)
}

// CategoryNotFoundError reports a category id that does not resolve.
type CategoryNotFoundError struct {
	ID int64
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("Invalid Category ID: %d", e.ID)
}

// InsufficientStockError reports a reduce request exceeding available stock.
type InsufficientStockError struct {
	ID        int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %d. Requested: %d, Available: %d",
		e.ID, e.Requested, e.Available)
}

// InvalidArgumentError reports rejected caller input (negative amounts,
// empty names).
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}
