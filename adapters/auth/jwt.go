// Package auth implements the token collaborator using JWT.
// Stateless by design - no shared state between instances.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation failures, surfaced verbatim in 401 responses.
var (
	ErrMissingToken = errors.New("token required")
	ErrInvalidToken = errors.New("token invalid")
	ErrExpiredToken = errors.New("token expired")
	ErrPermission   = errors.New("token lacks required permission")
)

// Claims carries an opaque payload plus a permission list.
type Claims struct {
	Payload     map[string]any `json:"payload,omitempty"`
	Permissions []string       `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// TokenService provides stateless JWT token operations.
// Thread-safe and suitable for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new JWT token service.
// If secret is empty, a random 32-byte secret is generated.
func NewTokenService(secret string) *TokenService {
	var secretBytes []byte
	if secret == "" {
		secretBytes = make([]byte, 32)
		rand.Read(secretBytes)
	} else {
		secretBytes = []byte(secret)
	}

	return &TokenService{
		secret: secretBytes,
		issuer: "formgate",
	}
}

// Create issues a token carrying payload and permissions, valid for ttl.
func (s *TokenService) Create(payload map[string]any, ttl time.Duration, permissions []string) (string, error) {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now().UTC()

	claims := Claims{
		Payload:     payload,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks signature and expiry and that every required permission
// is carried by the token, returning the decoded payload.
func (s *TokenService) Validate(tokenString string, required []string) (map[string]any, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	for _, perm := range required {
		if !containsString(claims.Permissions, perm) {
			return nil, ErrPermission
		}
	}

	return claims.Payload, nil
}

// GenerateSecret generates a random secret suitable for JWT signing.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
