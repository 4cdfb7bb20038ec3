package flows

import "context"

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	ClearStore     func(ctx context.Context) error
	ClearChallenge func()

	Metric    int
	Event     string
	MetricInc func(int)
	EmitAudit AuditFunc
}

// RunLogout drops the pending challenge and clears the token store. Logging out
// is local: the remote API is not called.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	if deps.ClearChallenge != nil {
		deps.ClearChallenge()
	}
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopAudit
	}

	err := deps.ClearStore(ctx)
	deps.MetricInc(deps.Metric)
	deps.EmitAudit(ctx, deps.Event, err == nil, "", err, nil)
	return err
}
