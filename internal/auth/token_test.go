package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 10*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	token, expiresAt, err := tm.IssueAccessToken("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	claims, err := tm.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	tm := newTestManager()
	tm.accessTTL = -time.Minute

	token, _, err := tm.IssueAccessToken("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.ParseAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tm := newTestManager()
	other := NewTokenManager("different-secret", "refresh-secret", 10*time.Minute, time.Hour)

	token, _, err := tm.IssueAccessToken("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestAccessTokenNotValidAsRefresh(t *testing.T) {
	tm := newTestManager()

	token, _, err := tm.IssueAccessToken("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.ParseRefreshToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token accepted by refresh parser: %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	token, _, err := tm.IssueRefreshToken("user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tm.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-2" {
		t.Errorf("subject = %q", claims.Subject)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	tm := newTestManager()

	token, _, err := tm.IssueRefreshToken("user-3")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	fp1 := tm.Fingerprint(token)
	fp2 := tm.Fingerprint(token)
	if fp1 != fp2 {
		t.Fatal("fingerprint must be deterministic")
	}
	if fp1 == tm.Fingerprint(token+"x") {
		t.Fatal("distinct tokens must not collide trivially")
	}
	if len(fp1) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(fp1))
	}
}
