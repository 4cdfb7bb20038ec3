package flows

import (
	"context"

	"github.com/MrEthical07/goSession/twofactor"
)

// TwoFactorMetrics carries metric IDs needed by the verification flow.
type TwoFactorMetrics struct {
	Success  int
	Rejected int
	Format   int
	Failure  int
}

// TwoFactorEvents carries audit event names used by the verification flow.
type TwoFactorEvents struct {
	Success  string
	Rejected string
	Failure  string
}

// TwoFactorErrors carries host-level sentinel errors used by the verification flow.
type TwoFactorErrors struct {
	MalformedResponse error
}

// TwoFactorDeps captures verification dependencies.
type TwoFactorDeps struct {
	Path string

	// Post performs the verification call, presenting challenge as the bearer
	// when it is not empty.
	Post           func(ctx context.Context, path, challenge string, body, out any) error
	Challenge      func() string
	ClearChallenge func()
	StoreTokens    func(ctx context.Context, access, refresh string) error
	IsRejection    func(error) bool

	Metrics   TwoFactorMetrics
	Events    TwoFactorEvents
	Errors    TwoFactorErrors
	MetricInc func(int)
	EmitAudit AuditFunc
}

// RunVerifyTwoFactor validates req locally, sends it and stores the returned pair.
// A malformed code returns a *twofactor.FormatError without any network call.
func RunVerifyTwoFactor(ctx context.Context, req twofactor.Request, deps TwoFactorDeps) error {
	normalizeTwoFactorDeps(&deps)

	mode := twofactor.ModeTOTP
	if req.IsBackupCode {
		mode = twofactor.ModeBackup
	}
	if err := twofactor.Validate(mode, req.Code); err != nil {
		deps.MetricInc(deps.Metrics.Format)
		return err
	}
	req.Code = twofactor.Normalize(mode, req.Code)

	meta := func() map[string]string {
		return map[string]string{"mode": mode.String()}
	}

	var resp TokenResponse
	if err := deps.Post(ctx, deps.Path, deps.Challenge(), req, &resp); err != nil {
		if deps.IsRejection(err) {
			deps.MetricInc(deps.Metrics.Rejected)
			deps.EmitAudit(ctx, deps.Events.Rejected, false, "", err, meta)
		} else {
			deps.MetricInc(deps.Metrics.Failure)
			deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, meta)
		}
		return err
	}

	if !resp.hasPair() {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", deps.Errors.MalformedResponse, meta)
		return deps.Errors.MalformedResponse
	}
	if err := deps.StoreTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, meta)
		return err
	}

	deps.ClearChallenge()
	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, "", nil, meta)
	return nil
}

func normalizeTwoFactorDeps(deps *TwoFactorDeps) {
	if deps.Challenge == nil {
		deps.Challenge = func() string { return "" }
	}
	if deps.ClearChallenge == nil {
		deps.ClearChallenge = func() {}
	}
	if deps.IsRejection == nil {
		deps.IsRejection = func(error) bool { return false }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopAudit
	}
}
