package handler

import (
	"errors"

	"go-pharmacy-pos/internal/middleware"
	"go-pharmacy-pos/internal/service"
	"go-pharmacy-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// saleErrorStatus maps the rejection taxonomy to HTTP statuses. Anything not
// listed is an internal failure.
func saleErrorStatus(err error) int {
	var (
		notFound     *service.ProductNotFoundError
		belowFloor   *service.PriceBelowFloorError
		insufficient *service.InsufficientStockError
		belowCost    *service.SaleBelowCostError
	)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &insufficient):
		return fiber.StatusConflict
	case errors.As(err, &belowFloor), errors.As(err, &belowCost):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req service.SubmitSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	// Non-admins always sell at their own branch, whatever the body says.
	if branchID := middleware.CallerBranch(c); branchID != nil && !middleware.IsAdminCaller(c) {
		req.BranchID = *branchID
	}

	sale, err := h.service.SubmitSale(&req, middleware.CallerID(c), middleware.CallerName(c))
	if err != nil {
		if service.IsRejection(err) {
			return c.Status(saleErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		// Malformed payloads are the caller's fault, not a server fault.
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sale recorded",
		"sale":    sale,
	})
}

func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sale id"})
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Sale not found"})
	}
	return c.JSON(sale)
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	branchID := scopedBranch(c)
	sales, err := h.service.GetRecentSales(branchID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sales)
}

// scopedBranch resolves which branch a read is scoped to: admins may pick any
// branch via query (or none for the global view), everyone else is pinned to
// their home branch.
func scopedBranch(c *fiber.Ctx) *uuid.UUID {
	if middleware.IsAdminCaller(c) {
		if raw := c.Query("branch_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				return &id
			}
		}
		return nil
	}
	return middleware.CallerBranch(c)
}
