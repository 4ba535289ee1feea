// Package auth issues and validates bearer tokens for the admin API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum HMAC secret length accepted by NewJWTService.
const MinSecretLength = 32

// DefaultTokenDuration applies when JWTConfig.TokenDuration is zero.
const DefaultTokenDuration = time.Hour

const issuer = "sessiond"

var (
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
)

// JWTConfig configures a JWTService.
type JWTConfig struct {
	Secret        string
	TokenDuration time.Duration
}

// Claims are the token claims carried by admin API requests.
type Claims struct {
	jwt.RegisteredClaims
}

// Operator returns the subject the token was issued to.
func (c *Claims) Operator() string { return c.Subject }

// JWTService signs and validates HS256 tokens.
type JWTService struct {
	secret   []byte
	duration time.Duration
}

// NewJWTService creates a service from cfg.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	d := cfg.TokenDuration
	if d <= 0 {
		d = DefaultTokenDuration
	}
	return &JWTService{secret: []byte(cfg.Secret), duration: d}, nil
}

// TokenDuration returns the lifetime of issued tokens.
func (s *JWTService) TokenDuration() time.Duration { return s.duration }

// GenerateToken issues a token for operator, valid for the configured duration.
func (s *JWTService) GenerateToken(operator string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.duration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken parses tokenString and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
