// Package token issues and verifies the signed, time-limited tokens that
// carry a session's identity claims. Access and refresh tokens share the
// same claim shape and differ only in lifetime.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wanderblog/apiserver/types"
)

// ErrInvalidToken is returned for signature, expiry, and malformed-input
// failures alike.
var ErrInvalidToken = errors.New("invalid token")

// ErrDisabled is returned by Verify when no signing secret is configured.
var ErrDisabled = errors.New("token service disabled")

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	UserID   int64      `json:"uid"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a shared secret. A Service with
// an empty secret is a valid disabled instance: Issue* return empty
// strings and Verify fails with ErrDisabled.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Enabled reports whether a signing secret is configured.
func (s *Service) Enabled() bool {
	return len(s.secret) > 0
}

// IssueAccess mints a short-lived access token for the user.
func (s *Service) IssueAccess(user types.User) (string, error) {
	return s.issue(user, s.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the user.
func (s *Service) IssueRefresh(user types.User) (string, error) {
	return s.issue(user, s.refreshTTL)
}

func (s *Service) issue(user types.User, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry of a token and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
