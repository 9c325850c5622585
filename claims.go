package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// IdentityClaims is the single claim shape this service signs: a registered
// claim set plus the account id and email. Both verification and session
// tokens use it; only the TTL differs.
type IdentityClaims struct {
	jwt.RegisteredClaims
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
}

// Subject returns the subject claim
func (c *IdentityClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// AccountID returns the account id the token was issued for.
func (c *IdentityClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// AccountUUID parses the account id into a uuid.
func (c *IdentityClaims) AccountUUID() (uuid.UUID, error) {
	return uuid.Parse(c.AccountID())
}

// Expires returns the expiration time
func (c *IdentityClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *IdentityClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// validate runs after decode so we never trust a structurally valid JWS with
// an empty payload.
func (c *IdentityClaims) validate() error {
	if c.AccountID() == "" {
		return errors.New("token is missing a subject claim", errors.CategoryAuth).
			WithTextCode(ErrTokenMalformed.TextCode)
	}
	if c.Email == "" {
		return errors.New("token is missing the email claim", errors.CategoryAuth).
			WithTextCode(ErrTokenMalformed.TextCode)
	}
	return nil
}
