package store

import (
	"context"
	"errors"

	"github.com/vaderpos/inventory-service/pkg/model"
)

// ErrNotFound is returned by Find/Delete operations when the id does not
// resolve. Callers must not overload a nil entity to mean "absent".
var ErrNotFound = errors.New("record not found")

// ProductStore is the durable keyed storage contract for products.
// Save assigns an id when the record's id is zero.
type ProductStore interface {
	FindProduct(ctx context.Context, id int64) (model.Product, error)
	FindAllProducts(ctx context.Context) ([]model.Product, error)
	SaveProduct(ctx context.Context, p model.Product) (model.Product, error)
	DeleteProductByID(ctx context.Context, id int64) error
	CountProductsByCategory(ctx context.Context, categoryID int64) (int64, error)
}

// CategoryStore is the durable keyed storage contract for categories.
type CategoryStore interface {
	FindCategory(ctx context.Context, id int64) (model.Category, error)
	FindAllCategories(ctx context.Context) ([]model.Category, error)
	SaveCategory(ctx context.Context, c model.Category) (model.Category, error)
	DeleteCategoryByID(ctx context.Context, id int64) error
}

// Store is the full storage contract the ledger is built on.
type Store interface {
	ProductStore
	CategoryStore
	HealthCheck(ctx context.Context) error
	Close() error
}
