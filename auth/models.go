// Package auth validates callers at the request boundary.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is an authenticated caller
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"` // "admin" or "reader"
}

// Claims represents JWT token claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the caller described by the claims
func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Username: c.Username, Role: c.Role}
}

// AuthMode represents the authentication mode
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"   // No authentication
	AuthModeAPIKey AuthMode = "apikey" // Shared key in the x-api-key header
	AuthModeJWT    AuthMode = "jwt"    // HS256 bearer token
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleReader = "reader"
)

// ParseMode parses an authentication mode name; empty selects AuthModeNone.
func ParseMode(s string) (AuthMode, error) {
	switch mode := AuthMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "", AuthModeNone:
		return AuthModeNone, nil
	case AuthModeAPIKey, AuthModeJWT:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q (want none, apikey or jwt)", s)
	}
}
