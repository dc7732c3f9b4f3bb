package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload the storefront backend signs into session tokens.
type SessionClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenInfo is what the client can learn about a token without the signing key.
type TokenInfo struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is not after now.
// Tokens without an exp claim never expire from the client's point of view.
func (i TokenInfo) Expired(now time.Time) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(i.ExpiresAt)
}
