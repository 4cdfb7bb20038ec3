package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/MrEthical07/goSession/transport"
	"github.com/MrEthical07/goSession/twofactor"
)

var (
	// ErrInvalidCredentials is returned by Login for an empty username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedResponse is returned when an auth endpoint answers 2xx without a
	// usable credential pair.
	ErrMalformedResponse = errors.New("malformed auth response")
	// ErrNoSession is returned by operations that need a stored access token.
	ErrNoSession = errors.New("no active session")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrRedisRequired is returned when the redis token store is configured without
	// a redis client or address.
	ErrRedisRequired = errors.New("redis token store requires a redis client")
	// ErrClientClosed is returned by operations on a closed Client.
	ErrClientClosed = errors.New("client closed")
)

// Errors surfaced by sub-packages, re-exported for callers that only import the
// root package.
var (
	ErrNetwork          = transport.ErrNetwork
	ErrUnauthenticated  = transport.ErrUnauthenticated
	ErrInvalidCode      = twofactor.ErrInvalidFormat
	ErrIncompletePair   = tokenstore.ErrIncompletePair
	ErrStoreUnavailable = tokenstore.ErrStoreUnavailable
)
