package model

import (
	"github.com/shopspring/decimal"
)

// Product is the canonical inventory record. Quantity never goes below zero;
// the ledger is the only writer.
type Product struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"categoryId"`
}

// Category groups products. Deleting a category does not cascade to the
// products referencing it; they keep the stale id.
type Category struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ProductDTO is the wire representation used by the REST API and the socket
// protocol. Price travels as a plain number.
type ProductDTO struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId"`
}

// CategoryDTO is the wire representation of a Category.
type CategoryDTO struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ProductUpdate carries a partial update. Nil fields are left unchanged;
// a non-nil zero value is applied as given.
type ProductUpdate struct {
	ProductName *string          `json:"productName"`
	Quantity    *int64           `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *int64           `json:"categoryId"`
}

// CategoryUpdate carries a partial category update.
type CategoryUpdate struct {
	CategoryName *string `json:"categoryName"`
}

// ToDTO converts a Product to its wire form.
func (p Product) ToDTO() ProductDTO {
	return ProductDTO{
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Quantity:    p.Quantity,
		Price:       p.Price.InexactFloat64(),
		CategoryID:  p.CategoryID,
	}
}

// ToDTO converts a Category to its wire form.
func (c Category) ToDTO() CategoryDTO {
	return CategoryDTO{
		CategoryID:   c.CategoryID,
		CategoryName: c.CategoryName,
	}
}

// ProductDTOs converts a slice of products, returning an empty (non-nil)
// slice for empty input so JSON encodes as [].
func ProductDTOs(products []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, p.ToDTO())
	}
	return out
}

// CategoryDTOs converts a slice of categories.
func CategoryDTOs(categories []Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.ToDTO())
	}
	return out
}
