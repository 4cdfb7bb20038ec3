package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/transport"
	"github.com/MrEthical07/goSession/twofactor"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventTwoFactorRequired = "two_factor_required"
	auditEventTwoFactorSuccess  = "two_factor_success"
	auditEventTwoFactorRejected = "two_factor_rejected"
	auditEventTwoFactorFailure  = "two_factor_failure"
	auditEventLogout            = "logout"
	auditEventSessionTeardown   = "session_teardown"
	auditEventAPIUnreachable    = "api_unreachable"
	auditEventAPIRecovered      = "api_recovered"
)

// AuditErrorCode is the stable, secret-free error classification put in
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrRejected           AuditErrorCode = "rejected"
	auditErrInvalidCode        AuditErrorCode = "invalid_code_format"
	auditErrNetwork            AuditErrorCode = "network"
	auditErrMalformedResponse  AuditErrorCode = "malformed_response"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var apiErr *transport.APIError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, transport.ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, twofactor.ErrInvalidFormat):
		return auditErrInvalidCode
	case errors.Is(err, transport.ErrNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformedResponse
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.As(err, &apiErr):
		return auditErrRejected
	default:
		return auditErrInternal
	}
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Success:   success,
		Error:     string(auditErrorCode(err)),
		Metadata:  metadata,
	}
	c.audit.Emit(ctx, event)
}

func (c *Client) metricInc(id MetricID) {
	c.metrics.Inc(id)
}
