package flows

import "context"

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginOutcome is the flow-local login result.
type LoginOutcome struct {
	TwoFactorRequired bool
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess      int
	LoginFailure      int
	TwoFactorRequired int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess      string
	LoginFailure      string
	TwoFactorRequired string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	InvalidCredentials error
	MalformedResponse  error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Path string

	// Post performs an anonymous JSON call.
	Post           func(ctx context.Context, path string, body, out any) error
	StoreTokens    func(ctx context.Context, access, refresh string) error
	SetChallenge   func(token string)
	ClearChallenge func()

	Metrics   LoginMetrics
	Events    LoginEvents
	Errors    LoginErrors
	MetricInc func(int)
	EmitAudit AuditFunc
}

// RunLogin submits credentials and stores the returned pair. When the server asks
// for a second factor the challenge token is handed to SetChallenge instead and
// nothing is persisted.
func RunLogin(ctx context.Context, creds Credentials, deps LoginDeps) (LoginOutcome, error) {
	normalizeLoginDeps(&deps)
	deps.ClearChallenge()

	if creds.Username == "" || creds.Password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Username, deps.Errors.InvalidCredentials, nil)
		return LoginOutcome{}, deps.Errors.InvalidCredentials
	}

	var resp TokenResponse
	if err := deps.Post(ctx, deps.Path, creds, &resp); err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Username, err, nil)
		return LoginOutcome{}, err
	}

	if resp.TwoFactorRequired {
		deps.SetChallenge(resp.ChallengeToken)
		deps.MetricInc(deps.Metrics.TwoFactorRequired)
		deps.EmitAudit(ctx, deps.Events.TwoFactorRequired, true, creds.Username, nil, nil)
		return LoginOutcome{TwoFactorRequired: true}, nil
	}

	if !resp.hasPair() {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Username, deps.Errors.MalformedResponse, nil)
		return LoginOutcome{}, deps.Errors.MalformedResponse
	}

	if err := deps.StoreTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Username, err, nil)
		return LoginOutcome{}, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, creds.Username, nil, nil)
	return LoginOutcome{}, nil
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.SetChallenge == nil {
		deps.SetChallenge = func(string) {}
	}
	if deps.ClearChallenge == nil {
		deps.ClearChallenge = func() {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopAudit
	}
}
