package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Authorizer decides whether a bearer token may use the admin surface.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (bool, error)
}

// Claims are the JWT claims accepted by JWT.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWT accepts HS256 tokens signed with Secret whose is_admin claim is true.
type JWT struct {
	Secret []byte
}

func (j JWT) Authorize(_ context.Context, token string) (bool, error) {
	claims, err := j.Validate(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			return false, nil
		}
		return false, err
	}
	return claims.IsAdmin, nil
}

// Validate parses token and returns its claims.
func (j JWT) Validate(token string) (*Claims, error) {
	if len(j.Secret) == 0 {
		return nil, errors.New("auth: empty jwt secret")
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GenerateToken signs a token for subject valid for ttl.
func (j JWT) GenerateToken(subject string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "livecatalog",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
}

// BearerPresence accepts any non-empty token. It only checks that a
// credential was sent and must not guard a public deployment.
type BearerPresence struct{}

func (BearerPresence) Authorize(_ context.Context, token string) (bool, error) {
	return strings.TrimSpace(token) != "", nil
}
