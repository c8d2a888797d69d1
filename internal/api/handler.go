package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/pkg/model"
)

// Handler serves the REST surface over the ledger. Every mutation goes
// through the same ledger operations as the socket commands, so REST
// callers trigger the same broadcasts.
type Handler struct {
	logger *zap.Logger
	ledger *ledger.Ledger
}

// NewHandler creates a REST handler.
func NewHandler(logger *zap.Logger, l *ledger.Ledger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger, ledger: l}
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// statusForError maps ledger errors to HTTP status codes.
func statusForError(err error) int {
	var productNotFound *ledger.ProductNotFoundError
	var categoryNotFound *ledger.CategoryNotFoundError
	var insufficient *ledger.InsufficientStockError
	var invalid *ledger.InvalidArgumentError
	switch {
	case errors.As(err, &productNotFound), errors.As(err, &categoryNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &insufficient):
		return fiber.StatusConflict
	case errors.As(err, &invalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) errorJSON(c *fiber.Ctx, err error) error {
	code := statusForError(err)
	if code == fiber.StatusInternalServerError {
		h.logger.Error("api.internal_error", zap.Error(err))
		return c.Status(code).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (h *Handler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.ledger.GetAllProducts(c.Context())
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(model.ProductDTOs(products))
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	p, err := h.ledger.GetProduct(c.Context(), id)
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(p.ToDTO())
}

func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.ledger.CreateProduct(c.Context(), req.toNewProduct())
	if err != nil {
		h.logger.Warn("api.create_product.failed", zap.String("name", req.ProductName), zap.Error(err))
		return h.errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p.ToDTO())
}

func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.ledger.UpdateProduct(c.Context(), id, req.toUpdate())
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(p.ToDTO())
}

func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.ledger.DeleteProduct(c.Context(), id); err != nil {
		return h.errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) CheckStock(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	quantity, err := h.ledger.CheckStock(c.Context(), id)
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"productId": id, "quantity": quantity})
}

func (h *Handler) ReduceStock(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.ledger.ReduceStock(c.Context(), id, req.Quantity)
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"productId": p.ProductID, "remainingStock": p.Quantity})
}

func (h *Handler) ReturnStock(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.ledger.ReturnStock(c.Context(), id, req.Quantity)
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"productId": p.ProductID, "remainingStock": p.Quantity})
}

func (h *Handler) GetAllCategories(c *fiber.Ctx) error {
	categories, err := h.ledger.GetAllCategories(c.Context())
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(model.CategoryDTOs(categories))
}

func (h *Handler) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}
	cat, err := h.ledger.GetCategory(c.Context(), id)
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(cat.ToDTO())
}

func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cat, err := h.ledger.CreateCategory(c.Context(), ledger.NewCategory{
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
	})
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat.ToDTO())
}

func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}
	var req UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cat, err := h.ledger.UpdateCategory(c.Context(), id, model.CategoryUpdate{CategoryName: req.CategoryName})
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(cat.ToDTO())
}

func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}

	// No cascade: products keep the stale reference, but tell the caller
	// how many were left dangling.
	orphaned, err := h.ledger.CountProductsInCategory(c.Context(), id)
	if err != nil {
		return h.errorJSON(c, err)
	}
	if err := h.ledger.DeleteCategory(c.Context(), id); err != nil {
		return h.errorJSON(c, err)
	}
	if orphaned > 0 {
		h.logger.Warn("api.delete_category.orphaned_products",
			zap.Int64("category_id", id),
			zap.Int64("count", orphaned))
	}
	return c.JSON(fiber.Map{"deleted": id, "orphanedProducts": orphaned})
}
