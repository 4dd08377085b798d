package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-service/internal/domain"
)

// ProductRepository encapsulates catalog persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs batch-fetches products. The result carries at most one entry
	// per distinct id; absent ids are simply missing from the result.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, int, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, title, description, category, image, price, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (title, description, category, image, price)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	image, err := imageToJSON(product.Image)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		product.Title,
		product.Description,
		product.Category,
		image,
		product.Price,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET title=$1, description=$2, category=$3, image=$4, price=$5, updated_at=NOW()
        WHERE id=$6`

	image, err := imageToJSON(product.Image)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query,
		product.Title,
		product.Description,
		product.Category,
		image,
		product.Price,
		product.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanProduct(row)
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]domain.Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		imageRaw []byte
	)
	if err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Category,
		&imageRaw,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(imageRaw) > 0 {
		var image domain.ProductImage
		if err := json.Unmarshal(imageRaw, &image); err != nil {
			return nil, err
		}
		product.Image = &image
	}
	return &product, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func imageToJSON(image *domain.ProductImage) ([]byte, error) {
	if image == nil {
		return nil, nil
	}
	return json.Marshal(image)
}

func orderClause(field string, desc bool) string {
	column := "created_at"
	switch field {
	case "name", "email", "created_at", "total_amount", "order_count":
		column = field
	}
	direction := " ASC"
	if desc {
		direction = " DESC"
	}
	return ` ORDER BY ` + column + direction
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
