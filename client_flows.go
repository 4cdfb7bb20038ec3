package goSession

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/transport"
)

func (c *Client) flowMetricInc(id int) {
	c.metricInc(MetricID(id))
}

func (c *Client) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Path: c.config.API.LoginEndpoint,
		Post: func(ctx context.Context, path string, body, out any) error {
			return c.transport.Do(transport.WithAnonymous(ctx), http.MethodPost, path, body, out)
		},
		StoreTokens:    c.store.Set,
		SetChallenge:   c.setChallenge,
		ClearChallenge: c.clearChallenge,
		Metrics: flows.LoginMetrics{
			LoginSuccess:      int(MetricLoginSuccess),
			LoginFailure:      int(MetricLoginFailure),
			TwoFactorRequired: int(MetricTwoFactorRequired),
		},
		Events: flows.LoginEvents{
			LoginSuccess:      auditEventLoginSuccess,
			LoginFailure:      auditEventLoginFailure,
			TwoFactorRequired: auditEventTwoFactorRequired,
		},
		Errors: flows.LoginErrors{
			InvalidCredentials: ErrInvalidCredentials,
			MalformedResponse:  ErrMalformedResponse,
		},
		MetricInc: c.flowMetricInc,
		EmitAudit: c.emitAudit,
	}
}

func (c *Client) twoFactorDeps() flows.TwoFactorDeps {
	return flows.TwoFactorDeps{
		Path: c.config.API.TwoFactorEndpoint,
		Post: func(ctx context.Context, path, challenge string, body, out any) error {
			if challenge == "" {
				ctx = transport.WithAnonymous(ctx)
			} else {
				// A 401 here is a verdict on the code, not on the session.
				ctx = transport.WithoutSessionGuard(transport.WithBearer(ctx, challenge))
			}
			return c.transport.Do(ctx, http.MethodPost, path, body, out)
		},
		Challenge:      c.currentChallenge,
		ClearChallenge: c.clearChallenge,
		StoreTokens:    c.store.Set,
		IsRejection: func(err error) bool {
			var apiErr *transport.APIError
			return errors.As(err, &apiErr)
		},
		Metrics: flows.TwoFactorMetrics{
			Success:  int(MetricTwoFactorSuccess),
			Rejected: int(MetricTwoFactorRejected),
			Format:   int(MetricTwoFactorFormatError),
			Failure:  int(MetricTwoFactorFailure),
		},
		Events: flows.TwoFactorEvents{
			Success:  auditEventTwoFactorSuccess,
			Rejected: auditEventTwoFactorRejected,
			Failure:  auditEventTwoFactorFailure,
		},
		Errors: flows.TwoFactorErrors{
			MalformedResponse: ErrMalformedResponse,
		},
		MetricInc: c.flowMetricInc,
		EmitAudit: c.emitAudit,
	}
}

func (c *Client) logoutDeps() flows.LogoutDeps {
	return flows.LogoutDeps{
		ClearStore:     c.store.Clear,
		ClearChallenge: c.clearChallenge,
		Metric:         int(MetricLogout),
		Event:          auditEventLogout,
		MetricInc:      c.flowMetricInc,
		EmitAudit:      c.emitAudit,
	}
}
