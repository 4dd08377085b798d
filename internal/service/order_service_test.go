package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

func priceOf(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func catalogProduct(title, price string) domain.Product {
	p := domain.Product{ID: uuid.NewString(), Title: title}
	if price != "" {
		p.Price = priceOf(price)
	}
	return p
}

type orderFixture struct {
	svc      *OrderService
	orders   *stubOrderRepo
	users    *stubUserRepo
	customer *domain.User
}

func newOrderFixture(products ...domain.Product) orderFixture {
	customer := &domain.User{ID: uuid.NewString(), Email: "buyer@example.com", Roles: []domain.Role{domain.RoleCustomer}}
	orders := newStubOrderRepo()
	users := newStubUserRepo(customer)
	svc := NewOrderService(orders, newStubProductRepo(products...), users, nil)
	return orderFixture{svc: svc, orders: orders, users: users, customer: customer}
}

func TestCreateOrderComputesTotal(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	mug := catalogProduct("mug", "7.25")
	fx := newOrderFixture(tea, mug)

	order, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID, mug.ID},
		Total: decimal.RequireFromString("19.75"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("19.75")) {
		t.Errorf("total = %s", order.TotalAmount)
	}
	if order.CustomerID != fx.customer.ID {
		t.Errorf("customer = %q", order.CustomerID)
	}
	if order.Status != domain.OrderStatusCreated {
		t.Errorf("status = %s", order.Status)
	}
	if order.OrderNumber == 0 {
		t.Error("order number not assigned")
	}
	if fx.users.recalcCalls != 1 {
		t.Errorf("recalc calls = %d, want 1", fx.users.recalcCalls)
	}
}

func TestCreateOrderDuplicatesCountPerOccurrence(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	order, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID, tea.ID, tea.ID},
		Total: decimal.RequireFromString("37.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(order.ProductIDs) != 3 {
		t.Errorf("line entries = %d, want 3", len(order.ProductIDs))
	}
	if len(order.Products) != 3 {
		t.Errorf("resolved products = %d, want 3", len(order.Products))
	}
}

func TestCreateOrderRejectsEmptyBasket(t *testing.T) {
	fx := newOrderFixture()

	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{})
	if err == nil {
		t.Fatal("empty basket accepted")
	}
	assertNothingPersisted(t, fx)
}

func TestCreateOrderRejectsOversizedBasket(t *testing.T) {
	tea := catalogProduct("tea", "1.00")
	fx := newOrderFixture(tea)

	items := make([]string, 101)
	for i := range items {
		items[i] = tea.ID
	}
	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: items,
		Total: decimal.RequireFromString("101.00"),
	})
	if err == nil {
		t.Fatal("oversized basket accepted")
	}
	assertNothingPersisted(t, fx)
}

func TestCreateOrderRejectsMalformedID(t *testing.T) {
	fx := newOrderFixture()

	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{"not-a-uuid"},
		Total: decimal.Zero,
	})
	if err == nil {
		t.Fatal("malformed id accepted")
	}
	assertNothingPersisted(t, fx)
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID, uuid.NewString()},
		Total: decimal.RequireFromString("12.50"),
	})
	if err == nil {
		t.Fatal("unknown product accepted")
	}
	if !strings.Contains(err.Error(), "unknown product") {
		t.Errorf("err = %v", err)
	}
	assertNothingPersisted(t, fx)
}

func TestCreateOrderRejectsProductNotForSale(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	shelf := catalogProduct("display shelf", "")
	fx := newOrderFixture(tea, shelf)

	// One withdrawn product poisons the whole basket.
	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID, shelf.ID},
		Total: decimal.RequireFromString("12.50"),
	})
	if err == nil {
		t.Fatal("not-for-sale product accepted")
	}
	assertNothingPersisted(t, fx)
}

func TestCreateOrderRejectsTotalMismatch(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	_, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID},
		Total: decimal.RequireFromString("10.00"),
	})
	de := apperrors.ToDomainError(err)
	if de == nil || de.HTTPStatus != 400 {
		t.Fatalf("err = %v, want 400", err)
	}
	assertNothingPersisted(t, fx)
}

func TestGetOwnByNumberMasksForeignOrders(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	order, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID},
		Total: decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.GetOwnByNumber(context.Background(), fx.customer.ID, order.OrderNumber); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	foreignErr := apperrors.ToDomainError(mustErr(t, func() error {
		_, err := fx.svc.GetOwnByNumber(context.Background(), uuid.NewString(), order.OrderNumber)
		return err
	}))
	missingErr := apperrors.ToDomainError(mustErr(t, func() error {
		_, err := fx.svc.GetOwnByNumber(context.Background(), fx.customer.ID, order.OrderNumber+99)
		return err
	}))

	// A foreign order must read exactly like a missing one.
	if foreignErr.Code != "NOT_FOUND" || missingErr.Code != "NOT_FOUND" {
		t.Fatalf("codes = %s / %s, want NOT_FOUND both", foreignErr.Code, missingErr.Code)
	}
	if foreignErr.Message != missingErr.Message {
		t.Fatalf("messages differ: %q vs %q", foreignErr.Message, missingErr.Message)
	}
}

func TestUpdateStatusMonotonic(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	order, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID},
		Total: decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.UpdateStatus(context.Background(), order.OrderNumber, domain.OrderStatusProcessing); err != nil {
		t.Fatalf("created -> processing: %v", err)
	}
	if _, err := fx.svc.UpdateStatus(context.Background(), order.OrderNumber, domain.OrderStatusCreated); err == nil {
		t.Fatal("rollback accepted")
	}
	if _, err := fx.svc.UpdateStatus(context.Background(), order.OrderNumber, domain.OrderStatusCompleted); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}
	if _, err := fx.svc.UpdateStatus(context.Background(), order.OrderNumber, domain.OrderStatusCancelled); err == nil {
		t.Fatal("terminal state left")
	}
	// Repeating the current status is a no-op, not an error.
	if _, err := fx.svc.UpdateStatus(context.Background(), order.OrderNumber, domain.OrderStatusCompleted); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
}

func TestDeleteOrderRefreshesStats(t *testing.T) {
	tea := catalogProduct("tea", "12.50")
	fx := newOrderFixture(tea)

	order, err := fx.svc.Create(context.Background(), fx.customer.ID, OrderCreateInput{
		Items: []string{tea.ID},
		Total: decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.Delete(context.Background(), order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fx.orders.orders) != 0 {
		t.Fatal("order still persisted")
	}
	if fx.users.recalcCalls != 2 {
		t.Errorf("recalc calls = %d, want 2", fx.users.recalcCalls)
	}
}

func assertNothingPersisted(t *testing.T, fx orderFixture) {
	t.Helper()
	if len(fx.orders.orders) != 0 {
		t.Fatal("rejected basket was persisted")
	}
	if fx.users.recalcCalls != 0 {
		t.Fatal("stats recomputed for a rejected basket")
	}
}

func mustErr(t *testing.T, fn func() error) error {
	t.Helper()
	err := fn()
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}
