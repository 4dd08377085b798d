package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// RequireRole rejects callers whose role set does not intersect the
// required roles.
func RequireRole(required ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authorization required")
		}
		if !principal.User.HasAnyRole(required...) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// OwnerLookup resolves the owner id of the resource addressed by a path
// parameter value.
type OwnerLookup func(ctx context.Context, resourceID string) (string, error)

// RequireOwner enforces ownership of the resource named by paramName.
// Admins bypass the check. A missing resource yields NotFound rather than
// Forbidden so non-owners cannot probe for existence.
func RequireOwner(paramName string, lookup OwnerLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authorization required")
		}
		if principal.IsAdmin() {
			return c.Next()
		}

		ownerID, err := lookup(c.UserContext(), c.Params(paramName))
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("resource")
			}
			return apperrors.MapError(err)
		}
		if ownerID != principal.User.ID {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}
