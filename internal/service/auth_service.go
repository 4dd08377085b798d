package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// The same message covers unknown email and wrong password so responses
// cannot be used to enumerate accounts.
const invalidCredentialsMessage = "invalid email or password"

const (
	minPasswordLength = 6
	minNameLength     = 2
	maxNameLength     = 30
	defaultUserName   = "Customer"
)

// TokenPair bundles a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login and the refresh-token
// lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	hashCost   int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     auth.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		dispatcher: dispatcher,
		hashCost:   cfg.HashTimeCost,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a customer account and opens a session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, apperrors.NewValidationError("email must be a valid address", nil)
	}
	if len(password) < minPasswordLength {
		return nil, nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultUserName
	}
	if len([]rune(name)) < minNameLength || len([]rune(name)) > maxNameLength {
		return nil, nil, apperrors.NewValidationError("name must be 2 to 30 characters", nil)
	}

	hash, err := auth.HashPassword(password, s.hashCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleCustomer},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, nil, apperrors.NewConflict("email already registered")
		}
		return nil, nil, apperrors.MapError(err)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:   events.EventUserRegistered,
		UserID: user.ID,
		Payload: events.UserRegisteredPayload{
			Email: user.Email,
			Name:  user.Name,
		},
	})
	return user, pair, nil
}

// Login authenticates by credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized(invalidCredentialsMessage)
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized(invalidCredentialsMessage)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	user.RefreshFingerprints = nil
	return user, pair, nil
}

// openSession issues a token pair and persists the refresh fingerprint,
// adding one concurrent session for the user.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.users.AddRefreshFingerprint(ctx, user.ID, s.tokens.Fingerprint(refresh)); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyRefreshToken checks signature, expiry and revocation state.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.ParseRefreshToken(token)
	if err != nil {
		return "", err
	}
	ok, err := s.users.HasRefreshFingerprint(ctx, claims.Subject, s.tokens.Fingerprint(token))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", auth.ErrTokenRevoked
	}
	return claims.Subject, nil
}

// Rotate consumes a refresh token and issues a fresh pair. The fingerprint
// swap is a single conditional write, so replaying a consumed token always
// fails with Unauthorized and never yields a second valid pair.
func (s *AuthService) Rotate(ctx context.Context, oldRefresh string) (*domain.User, *TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(oldRefresh)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("authorization required")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("authorization required")
	}

	access, accessExp, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	newRefresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	oldFingerprint := s.tokens.Fingerprint(oldRefresh)
	newFingerprint := s.tokens.Fingerprint(newRefresh)
	if err := s.users.SwapRefreshFingerprint(ctx, user.ID, oldFingerprint, newFingerprint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Fingerprint already gone: the token was rotated or revoked.
			return nil, nil, apperrors.NewUnauthorized("authorization required")
		}
		return nil, nil, apperrors.MapError(err)
	}

	return user, &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     newRefresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout invalidates the session the refresh token belongs to. Unknown or
// malformed tokens are reported as Unauthorized; an already-removed
// fingerprint makes logout a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return apperrors.NewUnauthorized("authorization required")
	}
	if err := s.users.RemoveRefreshFingerprint(ctx, claims.Subject, s.tokens.Fingerprint(refreshToken)); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	return nil
}

// ProfileUpdateInput describes the PATCH /auth/me payload; nil fields stay
// untouched.
type ProfileUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

// UpdateProfile mutates the caller's own account. A password change is
// re-hashed; other sessions stay valid.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
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

// CurrentUser loads the caller's account without secret fields.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
