package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer signs HS256 access tokens. It exists for fake servers and tests; a real
// deployment receives its tokens from the remote API.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer returns an [Issuer]. key must be non-empty and ttl positive.
func NewIssuer(key []byte, ttl time.Duration, issuer string) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("hs256 requires a key")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Issuer{key: k, ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue signs an access token for uid and sid.
func (i *Issuer) Issue(uid, sid string) (string, error) {
	now := i.now()
	claims := AccessClaims{
		UID: uid,
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// Verify parses and verifies a token previously produced by Issue.
func (i *Issuer) Verify(tokenStr string) (*AccessClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
