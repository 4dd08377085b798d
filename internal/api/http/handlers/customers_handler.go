package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// CustomersHandler exposes administrative customer management.
type CustomersHandler struct {
	customers *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customers *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{customers: customers}
}

// List handles GET /customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	input := service.CustomerListInput{
		Search:    c.Query("search"),
		SortField: c.Query("sort"),
		SortDesc:  c.Query("order") == "desc",
		Page:      c.QueryInt("page", 1),
		PageSize:  c.QueryInt("pageSize", 10),
	}

	customers, total, err := h.customers.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	resp := dto.CustomerListResponse{
		Customers: make([]dto.UserResponse, 0, len(customers)),
		Total:     total,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}
	for i := range customers {
		resp.Customers = append(resp.Customers, dto.NewUserResponse(&customers[i]))
	}
	return c.JSON(resp)
}

// Get handles GET /customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	customer, err := h.customers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customer": dto.NewUserResponse(customer)})
}

// Update handles PATCH /customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	var req dto.CustomerUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	customer, err := h.customers.Update(c.UserContext(), c.Params("id"), service.CustomerUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customer": dto.NewUserResponse(customer)})
}

// Delete handles DELETE /customers/:id.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	customer, err := h.customers.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customer": dto.NewUserResponse(customer)})
}
