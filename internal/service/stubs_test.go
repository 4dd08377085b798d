package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
)

type stubUserRepo struct {
	users        map[string]*domain.User
	fingerprints map[string]map[string]bool
	recalcCalls  int
	nextID       int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{
		users:        map[string]*domain.User{},
		fingerprints: map[string]map[string]bool{},
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if user.ID == "" {
		r.nextID++
		user.ID = "user-" + strconv.Itoa(r.nextID)
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) List(ctx context.Context, filter repository.UserListFilter) ([]domain.User, int, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *stubUserRepo) AddRefreshFingerprint(ctx context.Context, userID, fingerprint string) error {
	if r.fingerprints[userID] == nil {
		r.fingerprints[userID] = map[string]bool{}
	}
	r.fingerprints[userID][fingerprint] = true
	return nil
}

func (r *stubUserRepo) RemoveRefreshFingerprint(ctx context.Context, userID, fingerprint string) error {
	delete(r.fingerprints[userID], fingerprint)
	return nil
}

func (r *stubUserRepo) HasRefreshFingerprint(ctx context.Context, userID, fingerprint string) (bool, error) {
	return r.fingerprints[userID][fingerprint], nil
}

func (r *stubUserRepo) SwapRefreshFingerprint(ctx context.Context, userID, oldFingerprint, newFingerprint string) error {
	if !r.fingerprints[userID][oldFingerprint] {
		return pgx.ErrNoRows
	}
	delete(r.fingerprints[userID], oldFingerprint)
	r.fingerprints[userID][newFingerprint] = true
	return nil
}

func (r *stubUserRepo) RecalculateOrderStats(ctx context.Context, userID string) error {
	r.recalcCalls++
	return nil
}

type stubProductRepo struct {
	products map[string]domain.Product
}

func newStubProductRepo(products ...domain.Product) *stubProductRepo {
	repo := &stubProductRepo{products: map[string]domain.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *stubProductRepo) Create(ctx context.Context, product *domain.Product) error {
	for _, existing := range r.products {
		if existing.Title == product.Title {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *stubProductRepo) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.products[product.ID] = *product
	return nil
}

func (r *stubProductRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *stubProductRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, int, error) {
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

type stubOrderRepo struct {
	orders     map[string]*domain.Order
	nextNumber int64
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *stubOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.nextNumber++
	order.OrderNumber = r.nextNumber
	order.ID = uuid.NewString()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *stubOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *o
	return &copied, nil
}

func (r *stubOrderRepo) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			copied := *o
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubOrderRepo) ListWithFilter(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *stubOrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return pgx.ErrNoRows
	}
	o.Status = to
	return nil
}

func (r *stubOrderRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.orders[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.orders, id)
	return nil
}
