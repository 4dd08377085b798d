package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
)

// ProductCreateRequest payload. A null price means the product is listed
// but not for sale.
type ProductCreateRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Image       *domain.ProductImage `json:"image"`
	Price       *decimal.Decimal     `json:"price"`
}

// ProductUpdateRequest payload for partial edits. Price carries its own
// presence flag because null is a meaningful value for it.
type ProductUpdateRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Category    *string              `json:"category"`
	Image       *domain.ProductImage `json:"image"`
	Price       *decimal.Decimal     `json:"price"`
	PriceSet    bool                 `json:"-"`
}

// ProductResponse is the wire projection of a catalog product.
type ProductResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	Image       *domain.ProductImage `json:"image,omitempty"`
	Price       *decimal.Decimal     `json:"price"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ProductListResponse wraps a catalog page.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// NewProductResponse maps a domain product to its wire projection.
func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewProductListResponse maps a page of products.
func NewProductListResponse(products []domain.Product, total, page, pageSize int) ProductListResponse {
	out := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range products {
		out.Products = append(out.Products, NewProductResponse(&products[i]))
	}
	return out
}
