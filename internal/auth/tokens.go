package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Claims is the payload of an access token. The subject is the user's uid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager that issues tokens valid for ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for id and its expiry time.
func (m *TokenManager) Issue(id domain.Identity) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.TokenManager.Issue: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and returns the identity it was issued for.
// Any malformed, expired or foreign-signed token yields
// domain.ErrAuthenticationRequired.
func (m *TokenManager) Verify(token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, fmt.Errorf("auth.TokenManager.Verify: %w: %v", domain.ErrAuthenticationRequired, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("auth.TokenManager.Verify: %w: invalid token", domain.ErrAuthenticationRequired)
	}
	return domain.Identity{UID: claims.Subject, Email: claims.Email}, nil
}
