// Package auth verifies and mints the bearer tokens the API speaks.
package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cipherstudio/internal/domain"
)

// TokenVerifier validates bearer tokens and extracts the user identity.
type TokenVerifier interface {
	VerifyToken(tokenString string) (userID string, err error)
}

// HS256Verifier implements TokenVerifier with a shared HMAC secret.
type HS256Verifier struct {
	secret []byte
	logger *slog.Logger
}

// NewVerifier creates a token verifier for the given shared secret.
func NewVerifier(secret string, logger *slog.Logger) (*HS256Verifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HS256Verifier{secret: []byte(secret), logger: logger}, nil
}

// VerifyToken validates a JWT and returns the subject claim. Any parse or
// signature failure maps to an unauthorized error.
func (v *HS256Verifier) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC to prevent algorithm confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return "", domain.ErrUnauthorized
	}
	if !token.Valid {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}

	return claims.Subject, nil
}

// SignToken mints a token for userID. Used by the CLI login flow and tests.
func SignToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
