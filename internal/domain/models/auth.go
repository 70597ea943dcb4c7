package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims represents the JWT claims issued by the identity provider.
// The subject is the user id.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *TokenClaims) GetUserID() string {
	return c.Subject
}
