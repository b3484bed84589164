package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims represents the payload the backend places in its access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"` // "admin", "driver" or "passenger"
	gojwt.RegisteredClaims
}

var parser = gojwt.NewParser()

// Inspect decodes a token without verifying its signature. The frontend
// holds no signing secret; the backend re-validates every request it
// receives, so the decoded claims are advisory only.
func Inspect(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Expired reports whether the token carries an exp claim in the past.
// Tokens that cannot be decoded count as expired.
func Expired(raw string, now time.Time) bool {
	claims, err := Inspect(raw)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
