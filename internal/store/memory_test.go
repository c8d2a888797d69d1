package store

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaderpos/inventory-service/pkg/model"
)

func TestMemorySaveAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	first, err := s.SaveProduct(ctx, model.Product{ProductName: "Widget", Quantity: 10, Price: decimal.NewFromFloat(2.5), CategoryID: 1})
	require.NoError(t, err)
	second, err := s.SaveProduct(ctx, model.Product{ProductName: "Gadget", Quantity: 3, Price: decimal.NewFromInt(9), CategoryID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ProductID)
	assert.Equal(t, int64(2), second.ProductID)
}

func TestMemorySaveWithExplicitIDUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.SaveProduct(ctx, model.Product{ProductID: 5, ProductName: "Widget", Quantity: 1})
	require.NoError(t, err)

	// Same id overwrites
	_, err = s.SaveProduct(ctx, model.Product{ProductID: 5, ProductName: "Widget v2", Quantity: 2})
	require.NoError(t, err)

	p, err := s.FindProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", p.ProductName)

	// Counter moved past the explicit id
	next, err := s.SaveProduct(ctx, model.Product{ProductName: "Gadget"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.ProductID)
}

func TestMemoryFindMissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.FindProduct(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindCategory(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteProductByID(ctx, 999), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategoryByID(ctx, 999), ErrNotFound)
}

func TestMemoryFindAllSortedByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for _, name := range []string{"c", "a", "b"} {
		_, err := s.SaveProduct(ctx, model.Product{ProductName: name})
		require.NoError(t, err)
	}

	products, err := s.FindAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for i := 1; i < len(products); i++ {
		assert.Less(t, products[i-1].ProductID, products[i].ProductID)
	}
}

func TestMemoryCountProductsByCategory(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for i := 0; i < 3; i++ {
		_, err := s.SaveProduct(ctx, model.Product{ProductName: "p", CategoryID: 1})
		require.NoError(t, err)
	}
	_, err := s.SaveProduct(ctx, model.Product{ProductName: "q", CategoryID: 2})
	require.NoError(t, err)

	n, err := s.CountProductsByCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.CountProductsByCategory(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SaveProduct(ctx, model.Product{ProductName: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	products, err := s.FindAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 50)

	seen := make(map[int64]bool)
	for _, p := range products {
		assert.False(t, seen[p.ProductID], "duplicate id %d", p.ProductID)
		seen[p.ProductID] = true
	}
}
