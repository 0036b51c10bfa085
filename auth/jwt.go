package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is the issuer of every token this service signs
const TokenIssuer = "featureinfo"

var (
	ErrMissingSecret = errors.New("signing secret is empty")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// GenerateToken signs an HS256 token for the principal valid for expirationHours.
// Negative hours produce an already expired token.
func GenerateToken(p Principal, secret string, expirationHours int) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := &Claims{
		UserID:   p.ID,
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expirationHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies an HS256 token.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckAPIKey compares a presented key against the configured one in constant time.
func CheckAPIKey(presented, expected string) error {
	if expected == "" || presented == "" {
		return ErrInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
