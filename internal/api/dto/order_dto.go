package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
)

// OrderCreateRequest payload. Items may repeat a product id once per
// basket occurrence.
type OrderCreateRequest struct {
	Items   []string        `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Address string          `json:"address"`
	Payment string          `json:"payment"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Comment string          `json:"comment"`
}

// OrderStatusUpdateRequest payload.
type OrderStatusUpdateRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// OrderResponse is the wire projection of an order.
type OrderResponse struct {
	ID          string             `json:"id"`
	OrderNumber int64              `json:"orderNumber"`
	CustomerID  string             `json:"customerId"`
	Customer    *UserResponse      `json:"customer,omitempty"`
	Products    []ProductResponse  `json:"products"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
	Address     string             `json:"address,omitempty"`
	Payment     string             `json:"payment,omitempty"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Comment     string             `json:"comment,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// OrderListResponse wraps a page of orders.
type OrderListResponse struct {
	Orders   []OrderResponse `json:"orders"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// NewOrderResponse maps a domain order to its wire projection.
func NewOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Address:     o.Address,
		Payment:     o.Payment,
		Email:       o.Email,
		Phone:       o.Phone,
		Comment:     o.Comment,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Products:    make([]ProductResponse, 0, len(o.Products)),
	}
	if o.Customer != nil {
		customer := NewUserResponse(o.Customer)
		resp.Customer = &customer
	}
	for i := range o.Products {
		resp.Products = append(resp.Products, NewProductResponse(&o.Products[i]))
	}
	return resp
}

// NewOrderListResponse maps a page of orders.
func NewOrderListResponse(orders []domain.Order, total, page, pageSize int) OrderListResponse {
	out := OrderListResponse{
		Orders:   make([]OrderResponse, 0, len(orders)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range orders {
		out.Orders = append(out.Orders, NewOrderResponse(&orders[i]))
	}
	return out
}
