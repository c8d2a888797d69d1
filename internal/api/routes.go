package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaderpos/inventory-service/internal/store"
)

// RegisterRoutes mounts the REST surface and the operational endpoints on
// app. The socket endpoint listens on its own net/http server; gorilla's
// upgrade needs connection hijacking that fiber's fasthttp adaptor cannot
// provide.
func RegisterRoutes(app *fiber.App, h *Handler, st store.Store) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"store": "ok"}
		status := "ok"
		code := fiber.StatusOK

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	products := app.Group("/api/products")
	products.Get("/", h.GetAllProducts)
	products.Post("/", h.CreateProduct)
	products.Get("/:id", h.GetProduct)
	products.Put("/:id", h.UpdateProduct)
	products.Delete("/:id", h.DeleteProduct)
	products.Get("/:id/stock", h.CheckStock)
	products.Post("/:id/reduce", h.ReduceStock)
	products.Post("/:id/return", h.ReturnStock)

	categories := app.Group("/api/categories")
	categories.Get("/", h.GetAllCategories)
	categories.Post("/", h.CreateCategory)
	categories.Get("/:id", h.GetCategory)
	categories.Put("/:id", h.UpdateCategory)
	categories.Delete("/:id", h.DeleteCategory)
}
