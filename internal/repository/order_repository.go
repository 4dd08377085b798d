package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
)

// OrderFilter captures admin order search parameters.
type OrderFilter struct {
	CustomerID  *string
	Status      *domain.OrderStatus
	TotalFrom   *decimal.Decimal
	TotalTo     *decimal.Decimal
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	// Create persists the order and its line entries in a single
	// transaction; either everything is written or nothing is.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error)
	ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	// UpdateStatus transitions an order conditionally on its current status;
	// pgx.ErrNoRows means the order vanished or the status moved concurrently.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `
    o.id, o.order_number, o.customer_id, o.total_amount, o.status,
    o.address, o.payment, o.email, o.phone, o.comment, o.created_at, o.updated_at,
    COALESCE((SELECT array_agg(i.product_id ORDER BY i.position)
              FROM order_items i WHERE i.order_id = o.id), '{}')`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertOrder = `
        INSERT INTO orders (customer_id, total_amount, status, address, payment, email, phone, comment)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, order_number, created_at, updated_at`

	if err := tx.QueryRow(ctx, insertOrder,
		order.CustomerID,
		order.TotalAmount,
		order.Status,
		order.Address,
		order.Payment,
		order.Email,
		order.Phone,
		order.Comment,
	).Scan(&order.ID, &order.OrderNumber, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	const insertItem = `INSERT INTO order_items (order_id, product_id, position) VALUES ($1, $2, $3)`
	for position, productID := range order.ProductIDs {
		if _, err := tx.Exec(ctx, insertItem, order.ID, productID, position); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanOrder(row)
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_number=$1`
	row := r.pool.QueryRow(ctx, query, orderNumber)
	return scanOrder(row)
}

func (r *orderRepository) ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += clause + `$` + itoa(len(args))
	}

	if filter.CustomerID != nil {
		addArg(` AND o.customer_id=`, *filter.CustomerID)
	}
	if filter.Status != nil {
		addArg(` AND o.status=`, *filter.Status)
	}
	if filter.TotalFrom != nil {
		addArg(` AND o.total_amount >= `, *filter.TotalFrom)
	}
	if filter.TotalTo != nil {
		addArg(` AND o.total_amount <= `, *filter.TotalTo)
	}
	if filter.CreatedFrom != nil {
		addArg(` AND o.created_at >= `, *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addArg(` AND o.created_at <= `, *filter.CreatedTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + orderColumns + ` FROM orders o` + where +
		` ORDER BY o.created_at DESC LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	const query = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.TotalAmount,
		&order.Status,
		&order.Address,
		&order.Payment,
		&order.Email,
		&order.Phone,
		&order.Comment,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ProductIDs,
	); err != nil {
		return nil, err
	}
	return &order, nil
}
