package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// CustomerListInput captures admin listing parameters.
type CustomerListInput struct {
	Search    string
	SortField string
	SortDesc  bool
	Page      int
	PageSize  int
}

// CustomerUpdateInput is an administrative partial update.
type CustomerUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

// CustomerService exposes administrative access to customer accounts.
type CustomerService struct {
	users    repository.UserRepository
	hashCost int
}

// NewCustomerService constructs the service.
func NewCustomerService(users repository.UserRepository, hashCost int) *CustomerService {
	return &CustomerService{users: users, hashCost: hashCost}
}

// List returns a customer page.
func (s *CustomerService) List(ctx context.Context, input CustomerListInput) ([]domain.User, int, error) {
	limit, offset := pageBounds(input.Page, input.PageSize)
	users, total, err := s.users.List(ctx, repository.UserListFilter{
		Search:    strings.TrimSpace(input.Search),
		SortField: input.SortField,
		SortDesc:  input.SortDesc,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return users, total, nil
}

// Get loads a customer by id.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("user")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update patches a customer account.
func (s *CustomerService) Update(ctx context.Context, id string, input CustomerUpdateInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len([]rune(name)) < minNameLength || len([]rune(name)) > maxNameLength {
			return nil, apperrors.NewValidationError("name must be 2 to 30 characters", nil)
		}
		user.Name = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.NewValidationError("email must be a valid address", nil)
		}
		user.Email = email
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered")
		}
		return nil, apperrors.MapError(err)
	}

	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.hashCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return user, nil
}

// Delete removes a customer. Orders referencing the account keep their
// dangling customer reference; there is no cascade.
func (s *CustomerService) Delete(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
