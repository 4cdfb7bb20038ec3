package internaldefs

import (
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/liveness"
)

const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

	APIUpName = "gosession_api_up"
	APIUpHelp = "1 when the latest liveness probe reached the API, 0 when it did not."

	APILastCheckedName = "gosession_api_last_checked_seconds"
	APILastCheckedHelp = "Unix time of the latest completed liveness probe."
)

// Health converts a liveness signal into gauge values. ok is false until a probe
// has completed, in which case neither gauge is reported.
func Health(sig liveness.Signal) (up int64, lastChecked float64, ok bool) {
	switch sig.Status {
	case liveness.StatusHealthy:
		up = 1
	case liveness.StatusUnhealthy:
		up = 0
	default:
		return 0, 0, false
	}
	if !sig.LastCheckedAt.IsZero() {
		lastChecked = float64(sig.LastCheckedAt.Unix()) + float64(sig.LastCheckedAt.Nanosecond())/float64(time.Second)
	}
	return up, lastChecked, true
}

// CounterDef maps a client counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef maps a client histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Logins that stored a credential pair."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins that ended in an error."},
	{ID: goSession.MetricTwoFactorRequired, Name: "gosession_two_factor_required_total", Help: "Logins that asked for a second factor."},
	{ID: goSession.MetricTwoFactorSuccess, Name: "gosession_two_factor_success_total", Help: "Accepted verification codes."},
	{ID: goSession.MetricTwoFactorRejected, Name: "gosession_two_factor_rejected_total", Help: "Verification codes refused by the API."},
	{ID: goSession.MetricTwoFactorFormatError, Name: "gosession_two_factor_format_error_total", Help: "Verification codes refused locally."},
	{ID: goSession.MetricTwoFactorFailure, Name: "gosession_two_factor_failure_total", Help: "Verification attempts without a verdict."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Explicit logouts."},
	{ID: goSession.MetricSessionTeardown, Name: "gosession_session_teardown_total", Help: "Sessions cleared after a 401."},
	{ID: goSession.MetricLoginRedirect, Name: "gosession_login_redirect_total", Help: "Redirects to the login path."},
	{ID: goSession.MetricRequest, Name: "gosession_request_total", Help: "API calls that received a response."},
	{ID: goSession.MetricNetworkFailure, Name: "gosession_network_failure_total", Help: "API calls that received no response."},
	{ID: goSession.MetricProbeSuccess, Name: "gosession_probe_success_total", Help: "Liveness probes that reached the API."},
	{ID: goSession.MetricProbeFailure, Name: "gosession_probe_failure_total", Help: "Liveness probes that did not reach the API."},
	{ID: goSession.MetricHealthUnhealthy, Name: "gosession_health_unhealthy_total", Help: "Transitions to unreachable."},
	{ID: goSession.MetricHealthRecovered, Name: "gosession_health_recovered_total", Help: "Transitions back to reachable."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRequestLatency, Name: "gosession_request_latency_seconds", Help: "API call latency."},
}

// HistogramBounds are the upper bounds in seconds, matching the client buckets.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
