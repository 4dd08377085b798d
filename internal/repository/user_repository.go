package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-service/internal/domain"
)

// UserListFilter captures admin customer listing parameters.
type UserListFilter struct {
	Search    string
	SortField string
	SortDesc  bool
	Limit     int
	Offset    int
}

// UserRepository defines persistence access for users. GetByID and List
// return a projection without password hash or refresh fingerprints; only
// GetByEmail loads credentials, for the login path.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserListFilter) ([]domain.User, int, error)

	AddRefreshFingerprint(ctx context.Context, userID, fingerprint string) error
	RemoveRefreshFingerprint(ctx context.Context, userID, fingerprint string) error
	HasRefreshFingerprint(ctx context.Context, userID, fingerprint string) (bool, error)
	SwapRefreshFingerprint(ctx context.Context, userID, oldFingerprint, newFingerprint string) error

	RecalculateOrderStats(ctx context.Context, userID string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, phone, roles)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Phone,
		rolesToStrings(user.Roles),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// Update persists profile fields only; the password hash has a dedicated
// writer so profile edits can never clobber credentials.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, phone=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const safeUserColumns = `id, name, email, phone, roles, total_amount, order_count, last_order_date, last_order_id, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + safeUserColumns + ` FROM users WHERE id=$1`

	var (
		user  domain.User
		roles []string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&roles,
		&user.TotalAmount,
		&user.OrderCount,
		&user.LastOrderDate,
		&user.LastOrderID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Roles = stringsToRoles(roles)
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, phone, roles, refresh_fingerprints,
               total_amount, order_count, last_order_date, last_order_id, created_at, updated_at
        FROM users WHERE email=$1`

	var (
		user  domain.User
		roles []string
	)
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&roles,
		&user.RefreshFingerprints,
		&user.TotalAmount,
		&user.OrderCount,
		&user.LastOrderDate,
		&user.LastOrderID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Roles = stringsToRoles(roles)
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserListFilter) ([]domain.User, int, error) {
	args := []any{}
	where := ``
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = ` WHERE name ILIKE $1 OR email ILIKE $1`
	}

	countQuery := `SELECT COUNT(*) FROM users` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := orderClause(filter.SortField, filter.SortDesc)
	limitPos := len(args) + 1
	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + safeUserColumns + ` FROM users` + where + order +
		` LIMIT $` + itoa(limitPos) + ` OFFSET $` + itoa(limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			user  domain.User
			roles []string
		)
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Phone,
			&roles,
			&user.TotalAmount,
			&user.OrderCount,
			&user.LastOrderDate,
			&user.LastOrderID,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		user.Roles = stringsToRoles(roles)
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) AddRefreshFingerprint(ctx context.Context, userID, fingerprint string) error {
	const query = `
        UPDATE users SET refresh_fingerprints = array_append(refresh_fingerprints, $1), updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, fingerprint, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) RemoveRefreshFingerprint(ctx context.Context, userID, fingerprint string) error {
	const query = `
        UPDATE users SET refresh_fingerprints = array_remove(refresh_fingerprints, $1), updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, fingerprint, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) HasRefreshFingerprint(ctx context.Context, userID, fingerprint string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1 AND $2 = ANY(refresh_fingerprints))`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, fingerprint).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SwapRefreshFingerprint removes the old fingerprint and appends the new one
// in a single conditional UPDATE. The WHERE clause requires the old
// fingerprint to still be present, so a second rotation attempt with an
// already-consumed token affects zero rows and reports pgx.ErrNoRows.
func (r *userRepository) SwapRefreshFingerprint(ctx context.Context, userID, oldFingerprint, newFingerprint string) error {
	const query = `
        UPDATE users
        SET refresh_fingerprints = array_append(array_remove(refresh_fingerprints, $1), $2), updated_at=NOW()
        WHERE id=$3 AND $1 = ANY(refresh_fingerprints)`
	cmd, err := r.pool.Exec(ctx, query, oldFingerprint, newFingerprint, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RecalculateOrderStats refreshes the denormalized order aggregates from the
// orders table. The aggregates are derived data; this is the only writer.
func (r *userRepository) RecalculateOrderStats(ctx context.Context, userID string) error {
	const query = `
        UPDATE users u SET
            total_amount    = COALESCE(s.total_amount, 0),
            order_count     = COALESCE(s.order_count, 0),
            last_order_date = s.last_order_date,
            last_order_id   = s.last_order_id,
            updated_at      = NOW()
        FROM (
            SELECT SUM(total_amount) AS total_amount,
                   COUNT(*)          AS order_count,
                   MAX(created_at)   AS last_order_date,
                   (SELECT id FROM orders WHERE customer_id=$1 ORDER BY created_at DESC LIMIT 1) AS last_order_id
            FROM orders WHERE customer_id=$1
        ) s
        WHERE u.id=$1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

func stringsToRoles(values []string) []domain.Role {
	out := make([]domain.Role, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Role(v))
	}
	return out
}
