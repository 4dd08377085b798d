package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. A nil Price means the product is not for sale;
// any basket containing it must be rejected as a whole.
type Product struct {
	ID          string
	Title       string
	Description string
	Category    string
	Image       *ProductImage
	Price       *decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductImage references an uploaded file.
type ProductImage struct {
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
}

// ForSale reports whether the product can be ordered.
func (p *Product) ForSale() bool {
	return p.Price != nil
}
