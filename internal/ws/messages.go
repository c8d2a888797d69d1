package ws

import (
	"github.com/vaderpos/inventory-service/pkg/model"
)

// Inbound command frame. Quantity is a pointer so "absent" is
// distinguishable from an explicit zero.
type command struct {
	ProductID int64  `json:"productId"`
	Action    string `json:"action"`
	Quantity  *int64 `json:"quantity"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

type errorReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type pongReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type productReply struct {
	Status      string  `json:"status"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId"`
}

type stockReply struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	ProductID      int64  `json:"productId"`
	RemainingStock int64  `json:"remainingStock"`
}

// Broadcast frames. Product and category channels are independent message
// types; a category change never carries product state and vice versa.

type singleProductBroadcast struct {
	Type           string           `json:"type"` // "productUpdate"
	Timestamp      int64            `json:"timestamp"`
	UpdateType     string           `json:"updateType"` // "single"
	UpdatedProduct model.ProductDTO `json:"updatedProduct"`
}

type globalProductBroadcast struct {
	Type       string             `json:"type"` // "productUpdate"
	Timestamp  int64              `json:"timestamp"`
	UpdateType string             `json:"updateType"` // "global"
	Products   []model.ProductDTO `json:"products"`
}

type singleCategoryBroadcast struct {
	Type            string            `json:"type"` // "categoryUpdate"
	Timestamp       int64             `json:"timestamp"`
	UpdateType      string            `json:"updateType"` // "single"
	UpdatedCategory model.CategoryDTO `json:"updatedCategory"`
}

type globalCategoryBroadcast struct {
	Type       string              `json:"type"` // "categoryUpdate"
	Timestamp  int64               `json:"timestamp"`
	UpdateType string              `json:"updateType"` // "global"
	Categories []model.CategoryDTO `json:"categories"`
}

const (
	typeProductUpdate  = "productUpdate"
	typeCategoryUpdate = "categoryUpdate"
	updateTypeSingle   = "single"
	updateTypeGlobal   = "global"
)
