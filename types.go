package goSession

import "time"

// LoginResult is returned by Client.Login.
type LoginResult struct {
	// TwoFactorRequired is set when the API asked for a second factor. No tokens
	// were stored; finish with Client.VerifyTwoFactor or Client.TwoFactor.
	TwoFactorRequired bool
}

// SessionInfo describes the stored session as seen from the client. Claims are
// decoded without signature verification and are informational only.
type SessionInfo struct {
	Authenticated bool
	UserID        string
	SessionID     string
	ExpiresAt     time.Time
	Expired       bool
	// Opaque is set when the access token is not a decodable JWT.
	Opaque bool
}
