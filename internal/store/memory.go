package store

import (
	"context"
	"sort"
	"sync"

	"github.com/vaderpos/inventory-service/pkg/model"
)

// MemoryStore is an in-process Store backed by maps. It is the default
// backend for development and the unit-test substrate for the ledger.
type MemoryStore struct {
	mu             sync.RWMutex
	products       map[int64]model.Product
	categories     map[int64]model.Category
	nextProductID  int64
	nextCategoryID int64
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		products:   make(map[int64]model.Product),
		categories: make(map[int64]model.Category),
	}
}

func (s *MemoryStore) FindProduct(_ context.Context, id int64) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) FindAllProducts(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *MemoryStore) SaveProduct(_ context.Context, p model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProductID == 0 {
		s.nextProductID++
		p.ProductID = s.nextProductID
	} else if p.ProductID > s.nextProductID {
		s.nextProductID = p.ProductID
	}
	s.products[p.ProductID] = p
	return p, nil
}

func (s *MemoryStore) DeleteProductByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) CountProductsByCategory(_ context.Context, categoryID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) FindCategory(_ context.Context, id int64) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) FindAllCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (s *MemoryStore) SaveCategory(_ context.Context, c model.Category) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CategoryID == 0 {
		s.nextCategoryID++
		c.CategoryID = s.nextCategoryID
	} else if c.CategoryID > s.nextCategoryID {
		s.nextCategoryID = c.CategoryID
	}
	s.categories[c.CategoryID] = c
	return c, nil
}

func (s *MemoryStore) DeleteCategoryByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
