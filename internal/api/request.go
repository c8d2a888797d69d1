package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/pkg/model"
)

// CreateProductRequest is the JSON body for POST /api/products.
type CreateProductRequest struct {
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId"`
}

func (r CreateProductRequest) Validate() error {
	if r.ProductName == "" {
		return fmt.Errorf("productName is required")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if r.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

func (r CreateProductRequest) toNewProduct() ledger.NewProduct {
	return ledger.NewProduct{
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		Price:       decimal.NewFromFloat(r.Price),
		CategoryID:  r.CategoryID,
	}
}

// UpdateProductRequest is the JSON body for PUT /api/products/:id.
// Absent fields are left unchanged.
type UpdateProductRequest struct {
	ProductName *string  `json:"productName"`
	Quantity    *int64   `json:"quantity"`
	Price       *float64 `json:"price"`
	CategoryID  *int64   `json:"categoryId"`
}

func (r UpdateProductRequest) toUpdate() model.ProductUpdate {
	upd := model.ProductUpdate{
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		CategoryID:  r.CategoryID,
	}
	if r.Price != nil {
		price := decimal.NewFromFloat(*r.Price)
		upd.Price = &price
	}
	return upd
}

// CreateCategoryRequest is the JSON body for POST /api/categories.
// CategoryID may be supplied when ids are externally defined.
type CreateCategoryRequest struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

func (r CreateCategoryRequest) Validate() error {
	if r.CategoryName == "" {
		return fmt.Errorf("categoryName is required")
	}
	return nil
}

// UpdateCategoryRequest is the JSON body for PUT /api/categories/:id.
type UpdateCategoryRequest struct {
	CategoryName *string `json:"categoryName"`
}

// StockRequest is the JSON body for the reduce/return stock endpoints.
type StockRequest struct {
	Quantity int64 `json:"quantity"`
}
