package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

func newTestAuthService(users *stubUserRepo) *AuthService {
	cfg := config.AuthConfig{
		AccessSecret:          "access-secret",
		RefreshSecret:         "refresh-secret",
		AccessTokenTTLMinutes: 10,
		RefreshTokenTTLDays:   7,
		HashTimeCost:          1,
	}
	return NewAuthService(cfg, users, nil)
}

func TestRegisterOpensSession(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)

	user, pair, err := svc.Register(context.Background(), "Alice", "Alice@Example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if len(users.fingerprints[user.ID]) != 1 {
		t.Fatalf("fingerprints = %d, want 1", len(users.fingerprints[user.ID]))
	}
}

func TestRegisterDefaultsName(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	user, _, err := svc.Register(context.Background(), "  ", "bob@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Name != "Customer" {
		t.Errorf("name = %q, want Customer", user.Name)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	cases := []struct {
		name, email, password string
	}{
		{"Alice", "not-an-email", "secret1"},
		{"Alice", "alice@example.com", "short"},
		{"A", "alice@example.com", "secret1"},
	}
	for _, tc := range cases {
		if _, _, err := svc.Register(context.Background(), tc.name, tc.email, tc.password); err == nil {
			t.Errorf("register(%q, %q, %q) accepted", tc.name, tc.email, tc.password)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	if _, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "Mallory", "alice@example.com", "secret2")
	de := apperrors.ToDomainError(err)
	if de == nil || de.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestLoginGenericRejectionMessage(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)
	if _, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", "secret1")
	_, _, wrongErr := svc.Login(context.Background(), "alice@example.com", "wrong-password")

	if unknownErr == nil || wrongErr == nil {
		t.Fatal("both logins must fail")
	}
	// Unknown account and wrong password must be indistinguishable.
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("messages differ: %q vs %q", unknownErr.Error(), wrongErr.Error())
	}
	de := apperrors.ToDomainError(wrongErr)
	if de.HTTPStatus != 401 {
		t.Fatalf("status = %d, want 401", de.HTTPStatus)
	}
}

func TestLoginStripsSecrets(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	if _, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, _, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.PasswordHash != "" || user.RefreshFingerprints != nil {
		t.Fatal("login result leaks credentials")
	}
}

func TestRotateIsSingleUse(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)
	user, pair, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, rotated, err := svc.Rotate(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	// The consumed token is dead even though its signature still checks out.
	if _, err := svc.VerifyRefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("old token verify err = %v, want ErrTokenRevoked", err)
	}
	if _, _, err := svc.Rotate(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("replaying a consumed refresh token must fail")
	}

	if userID, err := svc.VerifyRefreshToken(context.Background(), rotated.RefreshToken); err != nil || userID != user.ID {
		t.Fatalf("new token verify = (%q, %v)", userID, err)
	}
	if len(users.fingerprints[user.ID]) != 1 {
		t.Fatalf("fingerprints = %d, want exactly 1 after rotation", len(users.fingerprints[user.ID]))
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	_, pair, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.VerifyRefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
	// Logging out twice is harmless.
	if err := svc.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestConcurrentSessionsIndependent(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)
	user, first, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, second, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(users.fingerprints[user.ID]) != 2 {
		t.Fatalf("fingerprints = %d, want 2", len(users.fingerprints[user.ID]))
	}

	if err := svc.Logout(context.Background(), first.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.VerifyRefreshToken(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("second session must survive: %v", err)
	}
}

func TestUpdateProfileRehashesPassword(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)
	user, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	oldHash := users.users[user.ID].PasswordHash

	newPassword := "brand-new-password"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdateInput{Password: &newPassword}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if users.users[user.ID].PasswordHash == oldHash {
		t.Fatal("password hash unchanged")
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", newPassword); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice@example.com", "secret1"); err == nil {
		t.Fatal("old password still accepted")
	}
}

func TestUpdateProfileRejectsShortPasswordBeforeWrite(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users)
	user, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "Alicia"
	short := "nope"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdateInput{Name: &name, Password: &short}); err == nil {
		t.Fatal("short password accepted")
	}
	if users.users[user.ID].Name != "Alice" {
		t.Fatal("profile written despite invalid password")
	}
}
