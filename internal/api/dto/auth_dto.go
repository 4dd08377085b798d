package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-service/internal/domain"
)

// RegisterRequest payload for new customers.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdateRequest payload for self-service profile edits. Pointer
// fields distinguish "leave untouched" from "set to empty".
type ProfileUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// TokenResponse is returned from the refresh endpoint.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RolesResponse lists the caller's roles.
type RolesResponse struct {
	Roles []domain.Role `json:"roles"`
}

// UserResponse is the public projection of a user account.
type UserResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	Roles         []domain.Role   `json:"roles"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OrderCount    int             `json:"orderCount"`
	LastOrderDate *time.Time      `json:"lastOrderDate,omitempty"`
	LastOrderID   *string         `json:"lastOrderId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewUserResponse maps a domain user to its public projection.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Roles:         u.Roles,
		TotalAmount:   u.TotalAmount,
		OrderCount:    u.OrderCount,
		LastOrderDate: u.LastOrderDate,
		LastOrderID:   u.LastOrderID,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
