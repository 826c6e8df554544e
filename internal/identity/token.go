// Package identity turns an access token issued by the hosted identity
// provider into the user id every storage call is scoped by.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("access token has no subject")

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// ParseAccessToken verifies an HS256 token with secret and returns the
// session it describes. Expired tokens are rejected.
func ParseAccessToken(token string, secret []byte) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret is required to verify access tokens")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("verify access token: token invalid")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrNoSubject
	}

	s := &Session{UserID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
