package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/internal/store"
	"github.com/vaderpos/inventory-service/pkg/eventbus"
	"github.com/vaderpos/inventory-service/pkg/model"
)

// --- Test Helpers ---

func newTestApp(t *testing.T) (*fiber.App, *ledger.Ledger) {
	t.Helper()
	st := store.NewMemory()
	led := ledger.New(st, eventbus.New(), nil)
	app := fiber.New()
	RegisterRoutes(app, NewHandler(nil, led), st)
	return app, led
}

func seedWidget(t *testing.T, led *ledger.Ledger) model.Product {
	t.Helper()
	ctx := context.Background()
	cat, err := led.CreateCategory(ctx, ledger.NewCategory{CategoryName: "Hardware"})
	require.NoError(t, err)
	p, err := led.CreateProduct(ctx, ledger.NewProduct{
		ProductName: "Widget",
		Quantity:    10,
		Price:       decimal.NewFromFloat(2.5),
		CategoryID:  cat.CategoryID,
	})
	require.NoError(t, err)
	return p
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) == 0 {
		return resp, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		// Listing endpoints return arrays; wrap for uniform access.
		var arr []any
		require.NoError(t, json.Unmarshal(data, &arr))
		return resp, map[string]any{"items": arr}
	}
	return resp, out
}

// --- Product endpoints ---

func TestCreateProduct(t *testing.T) {
	app, led := newTestApp(t)
	cat, err := led.CreateCategory(context.Background(), ledger.NewCategory{CategoryName: "Hardware"})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products",
		`{"productName":"Widget","quantity":10,"price":2.5,"categoryId":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Widget", body["productName"])
	assert.Equal(t, float64(10), body["quantity"])
	assert.Equal(t, 2.5, body["price"])
	assert.Equal(t, float64(cat.CategoryID), body["categoryId"])
	assert.NotZero(t, body["productId"], "server assigns the id")
}

func TestCreateProductUnknownCategory(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products",
		`{"productName":"Widget","quantity":1,"price":1,"categoryId":42}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Invalid Category ID: 42", body["error"])
}

func TestCreateProductValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/products",
		`{"productName":"","quantity":1,"price":1,"categoryId":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/products",
		`{"productName":"x","quantity":-2,"price":1,"categoryId":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProduct(t *testing.T) {
	app, led := newTestApp(t)
	p := seedWidget(t, led)

	resp, body := doJSON(t, app, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(p.ProductID), body["productId"])
	assert.Equal(t, "Widget", body["productName"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListProducts(t *testing.T) {
	app, led := newTestApp(t)
	seedWidget(t, led)

	resp, body := doJSON(t, app, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	assert.Len(t, items, 1)
}

func TestUpdateProductPartial(t *testing.T) {
	app, led := newTestApp(t)
	seedWidget(t, led)

	resp, body := doJSON(t, app, http.MethodPut, "/api/products/1", `{"productName":"Widget Pro"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Widget Pro", body["productName"])
	assert.Equal(t, float64(10), body["quantity"], "absent fields unchanged")

	resp, body = doJSON(t, app, http.MethodPut, "/api/products/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["quantity"], "explicit zero applies")
}

func TestDeleteProduct(t *testing.T) {
	app, led := newTestApp(t)
	seedWidget(t, led)

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Idempotent at the HTTP boundary: second delete reports absence.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStockEndpoints(t *testing.T) {
	app, led := newTestApp(t)
	seedWidget(t, led)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products/1/reduce", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(6), body["remainingStock"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/products/1/reduce", `{"quantity":100}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Insufficient stock for product 1. Requested: 100, Available: 6", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/products/1/return", `{"quantity":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(16), body["remainingStock"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/products/1/stock", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(16), body["quantity"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/products/1/reduce", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- Category endpoints ---

func TestCategoryCRUD(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/categories", `{"categoryName":"Tools"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Tools", body["categoryName"])
	id := body["categoryId"]

	resp, body = doJSON(t, app, http.MethodPut, "/api/categories/1", `{"categoryName":"Power Tools"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Power Tools", body["categoryName"])
	assert.Equal(t, id, body["categoryId"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"].([]any), 1)

	resp, body = doJSON(t, app, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["orphanedProducts"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/categories/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteCategoryReportsOrphans(t *testing.T) {
	app, led := newTestApp(t)
	seedWidget(t, led)

	resp, body := doJSON(t, app, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["orphanedProducts"])

	// Product survives with the stale reference.
	resp, body = doJSON(t, app, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["categoryId"])
}
