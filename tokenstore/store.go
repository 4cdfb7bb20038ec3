package tokenstore

import (
	"context"
	"errors"
)

// Kind selects one half of the credential pair.
type Kind uint8

const (
	// Access is the short-lived bearer credential.
	Access Kind = iota
	// Refresh is the long-lived credential used to obtain new access tokens.
	Refresh
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return "unknown"
	}
}

var (
	// ErrIncompletePair is returned by Set when one of the two tokens is empty.
	ErrIncompletePair = errors.New("token pair must contain both access and refresh tokens")
	// ErrStoreUnavailable wraps backend failures on writes.
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Store persists the credential pair and the profile cached alongside it.
//
// Get and Profile report absence with a false second return; a backend that cannot be
// read is indistinguishable from an empty one. Set writes a new pair and drops the
// cached profile in the same step, so a profile never outlives the credentials it
// was fetched with.
type Store interface {
	Get(ctx context.Context, kind Kind) (string, bool)
	Set(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
	Profile(ctx context.Context) ([]byte, bool)
	SetProfile(ctx context.Context, profile []byte) error
}

func validatePair(access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrIncompletePair
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
