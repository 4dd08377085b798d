package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// maxBasketItems caps the basket size; oversized baskets are rejected
// before any catalog lookup happens.
const maxBasketItems = 100

// OrderCreateInput describes the order placement payload. Items may repeat:
// every occurrence is a separate line entry and contributes to the total.
type OrderCreateInput struct {
	Items   []string
	Total   decimal.Decimal
	Address string
	Payment string
	Email   string
	Phone   string
	Comment string
}

// OrderListFilter describes admin listing filters.
type OrderListFilter struct {
	Status      *domain.OrderStatus
	TotalFrom   *decimal.Decimal
	TotalTo     *decimal.Decimal
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// OrderService validates baskets against the live catalog and persists
// orders with a server-computed total.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewOrderService constructs the service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, users repository.UserRepository, dispatcher events.Dispatcher) *OrderService {
	return &OrderService{orders: orders, products: products, users: users, dispatcher: dispatcher}
}

// Create places an order for the caller. The basket is validated against
// current catalog state and the total is recomputed server-side; the
// client-declared total is only ever equality-checked. All failures here
// are client errors and nothing is persisted on any of them.
func (s *OrderService) Create(ctx context.Context, callerID string, input OrderCreateInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.NewBadRequest("basket is empty")
	}
	if len(input.Items) > maxBasketItems {
		return nil, apperrors.NewBadRequest("basket exceeds maximum size")
	}

	unique := make([]string, 0, len(input.Items))
	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		if _, err := uuid.Parse(item); err != nil {
			return nil, apperrors.NewBadRequest("invalid product id: " + item)
		}
		if _, dup := seen[item]; !dup {
			seen[item] = struct{}{}
			unique = append(unique, item)
		}
	}

	products, err := s.products.GetByIDs(ctx, unique)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	// A shorter result than requested means an unknown or deleted product;
	// unknown items are never silently dropped.
	if len(products) != len(unique) {
		return nil, apperrors.NewBadRequest("basket references an unknown product")
	}

	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	total := decimal.Zero
	for _, item := range input.Items {
		product := byID[item]
		if !product.ForSale() {
			return nil, apperrors.NewBadRequest("product is not for sale: " + product.Title)
		}
		total = total.Add(*product.Price)
	}

	if !total.Equal(input.Total) {
		return nil, apperrors.NewBadRequest("order total does not match basket")
	}

	order := &domain.Order{
		CustomerID:  callerID,
		ProductIDs:  input.Items,
		TotalAmount: total,
		Status:      domain.OrderStatusCreated,
		Address:     input.Address,
		Payment:     input.Payment,
		Email:       input.Email,
		Phone:       input.Phone,
		Comment:     input.Comment,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.MapError(err)
	}

	// Aggregates are derived data recomputed on the next write; a failure
	// here must not fail the committed order.
	_ = s.users.RecalculateOrderStats(ctx, callerID)

	s.publish(ctx, events.Event{
		Type:   events.EventOrderCreated,
		UserID: callerID,
		Payload: events.OrderCreatedPayload{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.ProductIDs),
		},
	})

	return s.resolve(ctx, order)
}

// GetByNumber loads an order for an admin caller.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	return s.resolve(ctx, order)
}

// GetOwnByNumber loads an order for its owner. A foreign order reports
// NotFound, never Forbidden, so existence does not leak to non-owners.
func (s *OrderService) GetOwnByNumber(ctx context.Context, callerID string, orderNumber int64) (*domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	if order.CustomerID != callerID {
		return nil, apperrors.NewNotFound("order")
	}
	return s.resolve(ctx, order)
}

// List returns orders matching the admin filter.
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]domain.Order, int, error) {
	return s.list(ctx, nil, filter)
}

// ListOwn returns the caller's orders.
func (s *OrderService) ListOwn(ctx context.Context, callerID string, filter OrderListFilter) ([]domain.Order, int, error) {
	return s.list(ctx, &callerID, filter)
}

func (s *OrderService) list(ctx context.Context, customerID *string, filter OrderListFilter) ([]domain.Order, int, error) {
	limit, offset := pageBounds(filter.Page, filter.PageSize)
	repoFilter := repository.OrderFilter{
		CustomerID:  customerID,
		Status:      filter.Status,
		TotalFrom:   filter.TotalFrom,
		TotalTo:     filter.TotalTo,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       limit,
		Offset:      offset,
	}
	orders, total, err := s.orders.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	for i := range orders {
		resolved, err := s.resolve(ctx, &orders[i])
		if err != nil {
			return nil, 0, err
		}
		orders[i] = *resolved
	}
	return orders, total, nil
}

// UpdateStatus transitions an order. Transitions are monotonic: rollbacks
// and moves out of terminal states are rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber int64, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, apperrors.NewBadRequest("unknown order status")
	}
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	if !domain.CanTransition(order.Status, status) {
		return nil, apperrors.NewBadRequest("invalid status transition")
	}
	if order.Status != status {
		if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Lost a race with a concurrent transition.
				return nil, apperrors.NewConflict("order status changed concurrently")
			}
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, events.Event{
			Type:   events.EventOrderStatusChanged,
			UserID: order.CustomerID,
			Payload: events.OrderStatusChangedPayload{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				OldStatus:   order.Status,
				NewStatus:   status,
			},
		})
		order.Status = status
	}
	return s.resolve(ctx, order)
}

// Delete removes an order and refreshes the owner's aggregates.
func (s *OrderService) Delete(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewBadRequest("invalid order id")
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	resolved, err := s.resolve(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	_ = s.users.RecalculateOrderStats(ctx, order.CustomerID)
	return resolved, nil
}

// resolve attaches customer and product references to an order. Duplicated
// basket entries resolve to repeated product entries, and a deleted
// customer leaves the reference dangling rather than failing the read.
func (s *OrderService) resolve(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if customer, err := s.users.GetByID(ctx, order.CustomerID); err == nil {
		order.Customer = customer
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	unique := make([]string, 0, len(order.ProductIDs))
	seen := make(map[string]struct{}, len(order.ProductIDs))
	for _, id := range order.ProductIDs {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	products, err := s.products.GetByIDs(ctx, unique)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	order.Products = make([]domain.Product, 0, len(order.ProductIDs))
	for _, id := range order.ProductIDs {
		if product, ok := byID[id]; ok {
			order.Products = append(order.Products, product)
		}
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
