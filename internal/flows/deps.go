package flows

import "context"

// Deps groups flow dependency sets. The root client builds this once and
// delegates its methods to the matching flow.
type Deps struct {
	Login     LoginDeps
	TwoFactor TwoFactorDeps
	Logout    LogoutDeps
}

// TokenResponse is the credential payload returned by the login and
// verification endpoints.
type TokenResponse struct {
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
	TwoFactorRequired bool   `json:"twoFactorRequired,omitempty"`
	ChallengeToken    string `json:"challengeToken,omitempty"`
}

func (r TokenResponse) hasPair() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// AuditFunc emits one audit record. metadata may be nil.
type AuditFunc func(ctx context.Context, eventType string, success bool, userID string, err error, metadata func() map[string]string)

func nopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func nopMetric(int) {}
