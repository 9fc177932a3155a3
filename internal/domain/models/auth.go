package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims represents the session token claims issued by the external
// identity provider. Only the subject is required; the rest is informational.
type IdentityClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // Some providers set "authenticated" / "anon"
	SessionID            string `json:"sid"`
}

// GetUserID returns the user ID from the JWT subject claim.
// This is the owner identifier for every entry the user creates.
func (c *IdentityClaims) GetUserID() string {
	return c.Subject
}
