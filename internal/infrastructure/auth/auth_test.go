package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return New(Config{
		Secret:       "test-secret",
		TokenTTL:     time.Hour,
		PasswordHash: string(hash),
		Principal:    domain.DemoPrincipal(),
	})
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.Login(" Demo@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if principal != domain.DemoPrincipal() {
		t.Fatalf("expected demo principal, got %+v", principal)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.Login("demo@example.com", "wrong"); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := svc.Login("other@example.com", "correct horse"); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Sign(domain.DemoPrincipal())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	svc.now = time.Now

	if _, err := svc.Verify(token); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	svc := newTestService(t)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: domain.DemoUserID})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := svc.Verify(signed); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	hash, err := HashPassword("long enough")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("long enough")) != nil {
		t.Fatalf("expected hash to match password")
	}
}
