package staff

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload we sign into a bearer token. The base
// deployment carries only the user id and email: no issued-at, no expiry,
// so encoding the same user twice yields the same token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID   string `json:"user_id,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserID returns the user id claim, falling back to the registered subject.
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserEmail returns the email claim.
func (c *TokenClaims) UserEmail() string {
	return c.Email
}
