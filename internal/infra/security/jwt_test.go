package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
)

func newTestSigner(t *testing.T) *TokenSigner {
	t.Helper()

	signer, err := NewTokenSigner(TokenSignerConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "test",
	})
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	return signer
}

func TestNewTokenSignerValidation(t *testing.T) {
	if _, err := NewTokenSigner(TokenSignerConfig{AccessSecret: "", RefreshSecret: "r"}); err == nil {
		t.Error("expected error for empty access secret")
	}
	if _, err := NewTokenSigner(TokenSignerConfig{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Error("expected error for identical secrets")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	user := domain.User{
		ID:       "user-1",
		Email:    "jane@example.com",
		Fullname: "Jane Doe",
		Role:     domain.RoleCustomer,
	}

	token, err := signer.SignAccess(user)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	claims, err := signer.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Role != string(domain.RoleCustomer) {
		t.Errorf("Role = %q, want %q", claims.Role, domain.RoleCustomer)
	}
	if claims.ID == "" {
		t.Error("expected a non-empty JTI")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.SignRefresh("user-2")
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}

	claims, err := signer.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.UserID != "user-2" {
		t.Errorf("UserID = %q, want user-2", claims.UserID)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	signer := newTestSigner(t)

	issued := time.Now()
	signer.WithClock(func() time.Time { return issued })

	token, err := signer.SignAccess(domain.User{ID: "user-3"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	signer.WithClock(func() time.Time { return issued.Add(16 * time.Minute) })

	if _, err := signer.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("VerifyAccess after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAccessTampered(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.SignAccess(domain.User{ID: "user-4"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	if _, err := signer.VerifyAccess(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccess tampered = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	signer := newTestSigner(t)

	refresh, err := signer.SignRefresh("user-5")
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}
	if _, err := signer.VerifyAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccess(refresh token) = %v, want ErrTokenInvalid", err)
	}

	access, err := signer.SignAccess(domain.User{ID: "user-5"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	if _, err := signer.VerifyRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyRefresh(access token) = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyAccessEmptyToken(t *testing.T) {
	signer := newTestSigner(t)

	if _, err := signer.VerifyAccess(""); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccess(\"\") = %v, want ErrTokenInvalid", err)
	}
}
