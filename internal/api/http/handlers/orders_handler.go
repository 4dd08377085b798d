package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// OrdersHandler exposes order placement and management endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authorization required")
	}

	var req dto.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	order, err := h.orders.Create(c.UserContext(), principal.User.ID, service.OrderCreateInput{
		Items:   req.Items,
		Total:   req.Total,
		Address: req.Address,
		Payment: req.Payment,
		Email:   req.Email,
		Phone:   req.Phone,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewOrderResponse(order))
}

// ListAll handles GET /orders/all.
func (h *OrdersHandler) ListAll(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderListResponse(orders, total, filter.Page, filter.PageSize))
}

// ListOwn handles GET /orders/all/me.
func (h *OrdersHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authorization required")
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orders.ListOwn(c.UserContext(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderListResponse(orders, total, filter.Page, filter.PageSize))
}

// GetByNumber handles GET /orders/:orderNumber.
func (h *OrdersHandler) GetByNumber(c *fiber.Ctx) error {
	orderNumber, err := parseOrderNumber(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetByNumber(c.UserContext(), orderNumber)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderResponse(order))
}

// GetOwnByNumber handles GET /orders/me/:orderNumber. An order belonging
// to someone else reads the same as one that does not exist.
func (h *OrdersHandler) GetOwnByNumber(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authorization required")
	}

	orderNumber, err := parseOrderNumber(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetOwnByNumber(c.UserContext(), principal.User.ID, orderNumber)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderResponse(order))
}

// UpdateStatus handles PATCH /orders/:orderNumber.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	orderNumber, err := parseOrderNumber(c)
	if err != nil {
		return err
	}

	var req dto.OrderStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), orderNumber, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderResponse(order))
}

// Delete handles DELETE /orders/:id.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	order, err := h.orders.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOrderResponse(order))
}

func parseOrderNumber(c *fiber.Ctx) (int64, error) {
	orderNumber, err := strconv.ParseInt(c.Params("orderNumber"), 10, 64)
	if err != nil || orderNumber <= 0 {
		return 0, apperrors.NewBadRequest("order number must be a positive integer")
	}
	return orderNumber, nil
}

func parseOrderFilter(c *fiber.Ctx) (service.OrderListFilter, error) {
	filter := service.OrderListFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 10),
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !domain.ValidOrderStatus(status) {
			return filter, apperrors.NewBadRequest("unknown order status")
		}
		filter.Status = &status
	}
	if raw := c.Query("totalFrom"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, apperrors.NewBadRequest("totalFrom must be a decimal")
		}
		filter.TotalFrom = &v
	}
	if raw := c.Query("totalTo"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, apperrors.NewBadRequest("totalTo must be a decimal")
		}
		filter.TotalTo = &v
	}
	if raw := c.Query("createdFrom"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewBadRequest("createdFrom must be RFC3339")
		}
		filter.CreatedFrom = &t
	}
	if raw := c.Query("createdTo"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewBadRequest("createdTo must be RFC3339")
		}
		filter.CreatedTo = &t
	}
	return filter, nil
}
