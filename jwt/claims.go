package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be decoded at all.
var ErrMalformed = errors.New("malformed token")

// AccessClaims is the claim layout of access tokens issued by the remote API.
type AccessClaims struct {
	UID string `json:"uid,omitempty"`
	SID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns uid when present, falling back to the registered sub claim.
func (c *AccessClaims) UserID() string {
	if c == nil {
		return ""
	}
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// Expiry returns the exp claim, or the zero time when the token carries none.
func (c *AccessClaims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether exp is at or before now+leeway. Tokens without exp never expire.
func (c *AccessClaims) Expired(now time.Time, leeway time.Duration) bool {
	exp := c.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(exp)
}

// Inspect decodes the claims of tokenStr without verifying its signature.
func Inspect(tokenStr string) (*AccessClaims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}
