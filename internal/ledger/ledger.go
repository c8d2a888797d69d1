package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/internal/metrics"
	"github.com/vaderpos/inventory-service/internal/store"
	"github.com/vaderpos/inventory-service/pkg/eventbus"
	"github.com/vaderpos/inventory-service/pkg/model"
)

// NewProduct carries the caller-supplied fields for product creation.
type NewProduct struct {
	ProductName string
	Quantity    int64
	Price       decimal.Decimal
	CategoryID  int64
}

// NewCategory carries the caller-supplied fields for category creation.
// CategoryID may be set when category ids are externally defined; zero
// means server-assigned.
type NewCategory struct {
	CategoryID   int64
	CategoryName string
}

// Ledger is the sole writer of product and category state. Every mutation
// runs under the mutation mutex so check-then-act sequences on stock never
// interleave, and publishes exactly one change event iff the store write
// committed. Reads bypass the mutex.
type Ledger struct {
	store  store.Store
	bus    *eventbus.Bus
	logger *zap.Logger

	// mu serializes all mutations. Publishing under the lock keeps the
	// per-id event order identical to commit order; Publish itself never
	// blocks, so no subscriber can stall a writer.
	mu sync.Mutex
}

// New creates a Ledger over the given store, publishing to bus.
func New(st store.Store, bus *eventbus.Bus, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: st, bus: bus, logger: logger}
}

// GetProduct returns the current product record.
func (l *Ledger) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	p, err := l.store.FindProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, &ProductNotFoundError{ID: id}
	}
	return p, err
}

// GetAllProducts returns all product records.
func (l *Ledger) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return l.store.FindAllProducts(ctx)
}

// CheckStock returns the current quantity for a product.
func (l *Ledger) CheckStock(ctx context.Context, id int64) (int64, error) {
	p, err := l.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Quantity, nil
}

// CreateProduct validates and persists a new product, then publishes
// ProductChanged.
func (l *Ledger) CreateProduct(ctx context.Context, np NewProduct) (model.Product, error) {
	if strings.TrimSpace(np.ProductName) == "" {
		return model.Product{}, &InvalidArgumentError{Reason: "Product name cannot be empty"}
	}
	if np.Quantity < 0 {
		return model.Product{}, &InvalidArgumentError{Reason: "Quantity cannot be negative"}
	}
	if np.Price.IsNegative() {
		return model.Product{}, &InvalidArgumentError{Reason: "Price cannot be negative"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.FindCategory(ctx, np.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncMutation("create_product", "error")
			return model.Product{}, &CategoryNotFoundError{ID: np.CategoryID}
		}
		return model.Product{}, fmt.Errorf("category lookup failed: %w", err)
	}

	saved, err := l.store.SaveProduct(ctx, model.Product{
		ProductName: np.ProductName,
		Quantity:    np.Quantity,
		Price:       np.Price,
		CategoryID:  np.CategoryID,
	})
	if err != nil {
		metrics.IncMutation("create_product", "error")
		return model.Product{}, fmt.Errorf("save product failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.ProductChanged, ID: saved.ProductID})
	metrics.IncMutation("create_product", "ok")
	l.logger.Info("ledger.product_created",
		zap.Int64("product_id", saved.ProductID),
		zap.String("name", saved.ProductName))
	return saved, nil
}

// UpdateProduct applies the non-nil fields of upd to an existing product
// and publishes ProductChanged.
func (l *Ledger) UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (model.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncMutation("update_product", "error")
			return model.Product{}, &ProductNotFoundError{ID: id}
		}
		return model.Product{}, fmt.Errorf("product lookup failed: %w", err)
	}

	if upd.ProductName != nil {
		if strings.TrimSpace(*upd.ProductName) == "" {
			return model.Product{}, &InvalidArgumentError{Reason: "Product name cannot be empty"}
		}
		existing.ProductName = *upd.ProductName
	}
	if upd.Quantity != nil {
		if *upd.Quantity < 0 {
			return model.Product{}, &InvalidArgumentError{Reason: "Quantity cannot be negative"}
		}
		existing.Quantity = *upd.Quantity
	}
	if upd.Price != nil {
		if upd.Price.IsNegative() {
			return model.Product{}, &InvalidArgumentError{Reason: "Price cannot be negative"}
		}
		existing.Price = *upd.Price
	}
	if upd.CategoryID != nil {
		if _, err := l.store.FindCategory(ctx, *upd.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				metrics.IncMutation("update_product", "error")
				return model.Product{}, &CategoryNotFoundError{ID: *upd.CategoryID}
			}
			return model.Product{}, fmt.Errorf("category lookup failed: %w", err)
		}
		existing.CategoryID = *upd.CategoryID
	}

	saved, err := l.store.SaveProduct(ctx, existing)
	if err != nil {
		metrics.IncMutation("update_product", "error")
		return model.Product{}, fmt.Errorf("save product failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.ProductChanged, ID: saved.ProductID})
	metrics.IncMutation("update_product", "ok")
	return saved, nil
}

// DeleteProduct removes a product and publishes ProductDeleted. The event
// is published even when the id was already absent so listeners drop the
// id from any cached view; the absence is still reported to the caller.
func (l *Ledger) DeleteProduct(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.DeleteProductByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		metrics.IncMutation("delete_product", "error")
		return fmt.Errorf("delete product failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.ProductDeleted, ID: id})
	metrics.IncMutation("delete_product", "ok")
	l.logger.Info("ledger.product_deleted", zap.Int64("product_id", id))

	if errors.Is(err, store.ErrNotFound) {
		return &ProductNotFoundError{ID: id}
	}
	return nil
}

// ReduceStock atomically checks and decrements a product's quantity.
// Fails with InsufficientStockError and performs no mutation when the
// requested amount exceeds available stock.
func (l *Ledger) ReduceStock(ctx context.Context, id, amount int64) (model.Product, error) {
	if amount <= 0 {
		return model.Product{}, &InvalidArgumentError{Reason: "Quantity must be positive"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncMutation("reduce_stock", "error")
			return model.Product{}, &ProductNotFoundError{ID: id}
		}
		return model.Product{}, fmt.Errorf("product lookup failed: %w", err)
	}

	if p.Quantity < amount {
		metrics.IncMutation("reduce_stock", "error")
		return model.Product{}, &InsufficientStockError{ID: id, Requested: amount, Available: p.Quantity}
	}

	p.Quantity -= amount
	saved, err := l.store.SaveProduct(ctx, p)
	if err != nil {
		metrics.IncMutation("reduce_stock", "error")
		return model.Product{}, fmt.Errorf("save product failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.ProductChanged, ID: saved.ProductID})
	metrics.IncMutation("reduce_stock", "ok")
	l.logger.Info("ledger.stock_reduced",
		zap.Int64("product_id", id),
		zap.Int64("amount", amount),
		zap.Int64("remaining", saved.Quantity))
	return saved, nil
}

// ReturnStock atomically increments a product's quantity. No upper bound
// is enforced; restocks may exceed the original quantity.
func (l *Ledger) ReturnStock(ctx context.Context, id, amount int64) (model.Product, error) {
	if amount <= 0 {
		return model.Product{}, &InvalidArgumentError{Reason: "Quantity must be positive"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncMutation("return_stock", "error")
			return model.Product{}, &ProductNotFoundError{ID: id}
		}
		return model.Product{}, fmt.Errorf("product lookup failed: %w", err)
	}

	p.Quantity += amount
	saved, err := l.store.SaveProduct(ctx, p)
	if err != nil {
		metrics.IncMutation("return_stock", "error")
		return model.Product{}, fmt.Errorf("save product failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.ProductChanged, ID: saved.ProductID})
	metrics.IncMutation("return_stock", "ok")
	l.logger.Info("ledger.stock_returned",
		zap.Int64("product_id", id),
		zap.Int64("amount", amount),
		zap.Int64("quantity", saved.Quantity))
	return saved, nil
}

// GetCategory returns the current category record.
func (l *Ledger) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	c, err := l.store.FindCategory(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Category{}, &CategoryNotFoundError{ID: id}
	}
	return c, err
}

// GetAllCategories returns all category records.
func (l *Ledger) GetAllCategories(ctx context.Context) ([]model.Category, error) {
	return l.store.FindAllCategories(ctx)
}

// CountProductsInCategory returns how many products reference a category.
// Category deletes do not cascade, so callers use this to warn about
// orphaned references.
func (l *Ledger) CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	return l.store.CountProductsByCategory(ctx, categoryID)
}

// CreateCategory validates and persists a new category, then publishes
// CategoryChanged.
func (l *Ledger) CreateCategory(ctx context.Context, nc NewCategory) (model.Category, error) {
	if strings.TrimSpace(nc.CategoryName) == "" {
		return model.Category{}, &InvalidArgumentError{Reason: "Category name cannot be empty"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	saved, err := l.store.SaveCategory(ctx, model.Category{
		CategoryID:   nc.CategoryID,
		CategoryName: nc.CategoryName,
	})
	if err != nil {
		metrics.IncMutation("create_category", "error")
		return model.Category{}, fmt.Errorf("save category failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.CategoryChanged, ID: saved.CategoryID})
	metrics.IncMutation("create_category", "ok")
	l.logger.Info("ledger.category_created",
		zap.Int64("category_id", saved.CategoryID),
		zap.String("name", saved.CategoryName))
	return saved, nil
}

// UpdateCategory applies the non-nil fields of upd to an existing category
// and publishes CategoryChanged.
func (l *Ledger) UpdateCategory(ctx context.Context, id int64, upd model.CategoryUpdate) (model.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.store.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncMutation("update_category", "error")
			return model.Category{}, &CategoryNotFoundError{ID: id}
		}
		return model.Category{}, fmt.Errorf("category lookup failed: %w", err)
	}

	if upd.CategoryName != nil {
		if strings.TrimSpace(*upd.CategoryName) == "" {
			return model.Category{}, &InvalidArgumentError{Reason: "Category name cannot be empty"}
		}
		existing.CategoryName = *upd.CategoryName
	}

	saved, err := l.store.SaveCategory(ctx, existing)
	if err != nil {
		metrics.IncMutation("update_category", "error")
		return model.Category{}, fmt.Errorf("save category failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.CategoryChanged, ID: saved.CategoryID})
	metrics.IncMutation("update_category", "ok")
	return saved, nil
}

// DeleteCategory removes a category and publishes CategoryDeleted.
// Products referencing the category keep the stale id; no cascade.
func (l *Ledger) DeleteCategory(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.DeleteCategoryByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		metrics.IncMutation("delete_category", "error")
		return fmt.Errorf("delete category failed: %w", err)
	}

	l.publish(eventbus.Event{Kind: eventbus.CategoryDeleted, ID: id})
	metrics.IncMutation("delete_category", "ok")
	l.logger.Info("ledger.category_deleted", zap.Int64("category_id", id))

	if errors.Is(err, store.ErrNotFound) {
		return &CategoryNotFoundError{ID: id}
	}
	return nil
}

func (l *Ledger) publish(ev eventbus.Event) {
	if l.bus != nil {
		l.bus.Publish(ev)
	}
}
