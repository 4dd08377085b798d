package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

const (
	minTitleLength = 2
	maxTitleLength = 30
)

// ProductCreateInput describes the catalog creation payload.
type ProductCreateInput struct {
	Title       string
	Description string
	Category    string
	Image       *domain.ProductImage
	Price       *decimal.Decimal
}

// ProductUpdateInput describes a partial product update; nil fields stay
// untouched. PriceSet distinguishes "leave price alone" from "set price to
// null" (withdraw from sale).
type ProductUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Image       *domain.ProductImage
	Price       *decimal.Decimal
	PriceSet    bool
}

// ProductService manages the catalog.
type ProductService struct {
	products repository.ProductRepository
	upload   config.UploadConfig
}

// NewProductService constructs the service.
func NewProductService(products repository.ProductRepository, upload config.UploadConfig) *ProductService {
	return &ProductService{products: products, upload: upload}
}

// List returns a catalog page.
func (s *ProductService) List(ctx context.Context, page, pageSize int) ([]domain.Product, int, error) {
	limit, offset := pageBounds(page, pageSize)
	products, total, err := s.products.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return products, total, nil
}

// Create adds a product; a freshly uploaded image is moved out of the
// temp dir into permanent storage.
func (s *ProductService) Create(ctx context.Context, input ProductCreateInput) (*domain.Product, error) {
	title := strings.TrimSpace(input.Title)
	if len([]rune(title)) < minTitleLength || len([]rune(title)) > maxTitleLength {
		return nil, apperrors.NewValidationError("title must be 2 to 30 characters", nil)
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.NewValidationError("price must not be negative", nil)
	}
	if input.Image != nil {
		if err := s.commitImage(input.Image); err != nil {
			return nil, err
		}
	}

	product := &domain.Product{
		Title:       title,
		Description: input.Description,
		Category:    input.Category,
		Image:       input.Image,
		Price:       input.Price,
	}
	if err := s.products.Create(ctx, product); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("product with this title already exists")
		}
		return nil, apperrors.MapError(err)
	}
	return product, nil
}

// Update patches a product.
func (s *ProductService) Update(ctx context.Context, id string, input ProductUpdateInput) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewBadRequest("invalid product id")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, apperrors.MapError(err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len([]rune(title)) < minTitleLength || len([]rune(title)) > maxTitleLength {
			return nil, apperrors.NewValidationError("title must be 2 to 30 characters", nil)
		}
		product.Title = title
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.PriceSet {
		if input.Price != nil && input.Price.IsNegative() {
			return nil, apperrors.NewValidationError("price must not be negative", nil)
		}
		product.Price = input.Price
	}
	if input.Image != nil {
		if err := s.commitImage(input.Image); err != nil {
			return nil, err
		}
		product.Image = input.Image
	}

	if err := s.products.Update(ctx, product); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("product with this title already exists")
		}
		return nil, apperrors.MapError(err)
	}
	return product, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewBadRequest("invalid product id")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return nil, apperrors.MapError(err)
	}
	return product, nil
}

// commitImage moves an uploaded file from the temp dir to permanent
// storage. The file name is validated to stay inside the upload tree.
func (s *ProductService) commitImage(image *domain.ProductImage) error {
	name := filepath.Base(image.FileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return apperrors.NewBadRequest("invalid image file name")
	}
	src := filepath.Join(s.upload.TempDir, name)
	dst := filepath.Join(s.upload.Dir, name)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			// Already committed by an earlier update, nothing to move.
			if _, err := os.Stat(dst); err == nil {
				return nil
			}
			return apperrors.NewBadRequest("uploaded image not found")
		}
		return apperrors.NewInternalError(err)
	}
	if err := os.MkdirAll(s.upload.Dir, 0o755); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := os.Rename(src, dst); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
