package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
)

// TokenClaims is the subset of backend-issued claims the site cares about.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// InspectToken reads the claims of a backend-issued JWT without verifying its
// signature. The backend remains the authority on validity; the site only uses
// the expiry to avoid forwarding tokens that are already dead.
func InspectToken(tokenString string, now time.Time) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrTokenMalformed
	}

	out := &TokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	} else if id, ok := claims["id"].(string); ok {
		out.Subject = id
	}
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)

	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
		if !claims.VerifyExpiresAt(now.Unix(), true) {
			return out, ErrTokenExpired
		}
	}
	return out, nil
}
