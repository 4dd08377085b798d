package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

const principalKey = "auth_principal"

// Cookie names used by the auth endpoints and the middleware.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Principal represents the authenticated caller. The user is loaded without
// password hash or refresh fingerprints.
type Principal struct {
	User *domain.User
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.User != nil && p.User.HasRole(domain.RoleAdmin)
}

// Middleware resolves an authenticated identity from incoming requests.
//
// Credential extraction is an ordered list of strategies: the Authorization
// bearer header, then the access-token cookie, then the refresh-token
// cookie. Only the first present access candidate is tried; the refresh
// cookie is consulted only when no access token was submitted at all, and
// then with full revocation checking. Every unexpected fault collapses to
// Unauthorized so auth never fails open.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs the authorization gate.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if access := extractAccessToken(c); access != "" {
		claims, err := m.tokens.ParseAccessToken(access)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				return apperrors.NewUnauthorized("token expired")
			}
			return apperrors.NewUnauthorized("authorization required")
		}
		return m.attachUser(c, claims.Subject)
	}

	if refresh := c.Cookies(RefreshTokenCookie); refresh != "" {
		claims, err := m.tokens.ParseRefreshToken(refresh)
		if err != nil {
			return apperrors.NewUnauthorized("authorization required")
		}
		ok, err := m.users.HasRefreshFingerprint(c.UserContext(), claims.Subject, m.tokens.Fingerprint(refresh))
		if err != nil || !ok {
			return apperrors.NewUnauthorized("authorization required")
		}
		return m.attachUser(c, claims.Subject)
	}

	return apperrors.NewUnauthorized("authorization required")
}

func (m *Middleware) attachUser(c *fiber.Ctx, userID string) error {
	user, err := m.users.GetByID(c.UserContext(), userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewForbidden("access denied")
		}
		// Store faults during auth resolution fail closed.
		return apperrors.NewUnauthorized("authorization required")
	}
	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// extractAccessToken picks the access token candidate: Authorization bearer
// header first, then the access-token cookie. First non-empty wins.
func extractAccessToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
		return parts[1]
	}
	return c.Cookies(AccessTokenCookie)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
