package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role enumerates the closed set of user roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User is the domain model for store customers and administrators.
// PasswordHash and RefreshFingerprints must never be serialized outward;
// response DTOs omit them by construction.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Roles        []Role

	// RefreshFingerprints holds keyed-hash fingerprints of issued refresh
	// tokens. A refresh token is valid only while its fingerprint is present.
	RefreshFingerprints []string

	// Denormalized order aggregates, recomputed from the orders table.
	TotalAmount   decimal.Decimal
	OrderCount    int
	LastOrderDate *time.Time
	LastOrderID   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the user's role set contains role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user's role set intersects roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}
