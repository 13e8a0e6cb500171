package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

var errInvalidCredentials = errors.New("invalid credentials")

type Config struct {
	Secret       string
	TokenTTL     time.Duration
	PasswordHash string
	Principal    domain.Principal
}

// Service authenticates the single configured journal owner and issues HS256
// tokens that carry the principal.
type Service struct {
	secret       []byte
	ttl          time.Duration
	passwordHash []byte
	principal    domain.Principal
	now          func() time.Time
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func New(cfg Config) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		secret:       []byte(cfg.Secret),
		ttl:          ttl,
		passwordHash: []byte(cfg.PasswordHash),
		principal:    cfg.Principal,
		now:          time.Now,
	}
}

// Login checks the credentials and returns a signed token and its expiry.
func (s *Service) Login(email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	expected := strings.ToLower(s.principal.Email)
	if subtle.ConstantTimeCompare([]byte(email), []byte(expected)) != 1 {
		return "", time.Time{}, domain.WrapError(domain.ErrUnauthorized, "login", errInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, domain.WrapError(domain.ErrUnauthorized, "login", errInvalidCredentials)
	}
	return s.Sign(s.principal)
}

func (s *Service) Sign(principal domain.Principal) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: principal.Email,
		Name:  principal.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a bearer token back into the principal it was issued for.
func (s *Service) Verify(tokenString string) (domain.Principal, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(tokenString, parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.ErrUnauthorized, "verify token", err)
	}

	principal := domain.Principal{UserID: parsed.Subject, Email: parsed.Email, FullName: parsed.Name}
	if err := principal.Validate(); err != nil {
		return domain.Principal{}, err
	}
	return principal, nil
}

func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", domain.WrapError(domain.ErrInvalidInput, "hash password", errors.New("password must be at least 8 characters"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
