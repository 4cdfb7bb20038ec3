package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/liveness"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/MrEthical07/goSession/transport"
	"github.com/MrEthical07/goSession/twofactor"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client is the session core of an application talking to the remote API. It is
// safe for concurrent use. Build one with [New].
type Client struct {
	config    Config
	store     tokenstore.Store
	transport *transport.Transport
	logger    *slog.Logger
	metrics   *Metrics
	audit     *auditDispatcher
	flows     flows.Deps

	ownedRedis *redis.Client

	mu        sync.Mutex
	challenge string
	monitors  []*liveness.Monitor
	health    liveness.Signal

	closed atomic.Bool
}

var _ twofactor.Verifier = (*Client)(nil)
var _ liveness.Prober = (*Client)(nil)

// Login submits credentials anonymously. On success the credential pair is in the
// token store. When the API asks for a second factor, nothing is stored and
// LoginResult.TwoFactorRequired is set.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	ctx = withOperationID(ctx)
	out, err := flows.RunLogin(ctx, flows.Credentials{Username: username, Password: password}, c.flows.Login)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TwoFactorRequired: out.TwoFactorRequired}, nil
}

// VerifyTwoFactor sends a verification code. A malformed code fails locally with
// a *twofactor.FormatError. A refused code returns the *transport.APIError.
func (c *Client) VerifyTwoFactor(ctx context.Context, req twofactor.Request) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return flows.RunVerifyTwoFactor(withOperationID(ctx), req, c.flows.TwoFactor)
}

// TwoFactor returns a fresh verification engine bound to this client.
func (c *Client) TwoFactor(opts ...twofactor.Option) *twofactor.Engine {
	return twofactor.NewEngine(c, opts...)
}

// TwoFactorPending reports whether a login is waiting for its second factor.
func (c *Client) TwoFactorPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.challenge != ""
}

// Logout clears the stored session. The remote API is not called.
func (c *Client) Logout(ctx context.Context) error {
	return flows.RunLogout(withOperationID(ctx), c.flows.Logout)
}

// Me fetches the current user, caches the raw JSON as the session profile and
// decodes it into out when out is non-nil.
func (c *Client) Me(ctx context.Context, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	var raw json.RawMessage
	if err := c.transport.Do(ctx, http.MethodGet, c.config.API.MeEndpoint, nil, &raw); err != nil {
		return err
	}

	// A logout that raced with the call must not leave a profile behind.
	if _, ok := c.store.Get(ctx, tokenstore.Access); ok {
		if err := c.store.SetProfile(ctx, raw); err != nil {
			c.logger.Warn("profile cache write failed", slog.String("error", err.Error()))
		}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Profile decodes the cached profile into out. It reports false when none is
// cached.
func (c *Client) Profile(ctx context.Context, out any) (bool, error) {
	raw, ok := c.store.Profile(ctx)
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	return true, json.Unmarshal(raw, out)
}

// Probe tests reachability of the API. Any HTTP response, 401 included, counts
// as reachable, and a 401 here never ends the session.
func (c *Client) Probe(ctx context.Context) error {
	req, err := c.transport.NewRequest(transport.WithoutSessionGuard(ctx), http.MethodGet, c.config.API.MeEndpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.transport.Send(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.recordHealth(liveness.StatusUnhealthy)
		}
		c.metricInc(MetricProbeFailure)
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	c.recordHealth(liveness.StatusHealthy)
	c.metricInc(MetricProbeSuccess)
	return nil
}

// Health returns the outcome of the latest probe, from a monitor or a direct
// Probe call. The status is unknown until a probe completes.
func (c *Client) Health() liveness.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

func (c *Client) recordHealth(s liveness.Status) {
	c.mu.Lock()
	c.health = liveness.Signal{Status: s, LastCheckedAt: time.Now()}
	c.mu.Unlock()
}

// NewMonitor returns a stopped liveness monitor that probes this client on the
// configured interval. hooks are called after the client records the
// transition. Close stops every monitor created here.
func (c *Client) NewMonitor(hooks liveness.Hooks) *liveness.Monitor {
	wrapped := liveness.Hooks{
		OnUnhealthy: func(sig liveness.Signal) {
			c.metricInc(MetricHealthUnhealthy)
			c.emitAudit(context.Background(), auditEventAPIUnreachable, false, "", transport.ErrNetwork, nil)
			if hooks.OnUnhealthy != nil {
				hooks.OnUnhealthy(sig)
			}
		},
		OnRecovered: func(sig liveness.Signal) {
			c.metricInc(MetricHealthRecovered)
			c.emitAudit(context.Background(), auditEventAPIRecovered, true, "", nil, nil)
			if hooks.OnRecovered != nil {
				hooks.OnRecovered(sig)
			}
		},
	}

	m := liveness.New(c, wrapped,
		liveness.WithInterval(c.config.Liveness.Interval),
		liveness.WithTimeout(c.config.Liveness.Timeout),
		liveness.WithLogger(c.logger),
	)

	c.mu.Lock()
	c.monitors = append(c.monitors, m)
	c.mu.Unlock()
	return m
}

// Do performs an authenticated JSON call. See transport.Transport.Do.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.transport.Do(ctx, method, path, body, out)
}

// Session inspects the stored access token.
func (c *Client) Session(ctx context.Context) SessionInfo {
	access, ok := c.store.Get(ctx, tokenstore.Access)
	if !ok {
		return SessionInfo{}
	}

	claims, err := jwt.Inspect(access)
	if err != nil {
		return SessionInfo{Authenticated: true, Opaque: true}
	}
	return SessionInfo{
		Authenticated: true,
		UserID:        claims.UserID(),
		SessionID:     claims.SID,
		ExpiresAt:     claims.Expiry(),
		Expired:       claims.Expired(time.Now(), 0),
	}
}

// Store returns the token store in use.
func (c *Client) Store() tokenstore.Store {
	return c.store
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the buffer
// was full.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close stops monitors created by NewMonitor, flushes audit events and closes a
// redis client opened by Build. The token store keeps its contents.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	monitors := c.monitors
	c.monitors = nil
	c.mu.Unlock()
	for _, m := range monitors {
		m.Stop()
	}

	c.audit.Close()
	return c.closeRedis()
}

func (c *Client) closeRedis() error {
	if c.ownedRedis == nil {
		return nil
	}
	err := c.ownedRedis.Close()
	c.ownedRedis = nil
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) setChallenge(token string) {
	c.mu.Lock()
	c.challenge = token
	c.mu.Unlock()
}

func (c *Client) currentChallenge() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.challenge
}

func (c *Client) clearChallenge() {
	c.setChallenge("")
}

func (c *Client) observe(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.EventResponse:
		c.metricInc(MetricRequest)
		c.metrics.Observe(MetricRequestLatency, ev.Duration)
	case transport.EventNetworkFailure:
		c.metricInc(MetricNetworkFailure)
		c.metrics.Observe(MetricRequestLatency, ev.Duration)
	case transport.EventUnauthenticated:
		c.metricInc(MetricSessionTeardown)
		if ev.Redirected {
			c.metricInc(MetricLoginRedirect)
		}
		if c.audit == nil {
			return
		}
		c.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: auditEventSessionTeardown,
			RequestID: ev.RequestID,
			Success:   true,
			Error:     string(auditErrUnauthenticated),
			Metadata: map[string]string{
				"method":     ev.Method,
				"path":       ev.Path,
				"redirected": boolString(ev.Redirected),
			},
		})
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// withOperationID gives ctx a request id unless the caller set one, so the audit
// record and the HTTP call of one operation share it.
func withOperationID(ctx context.Context) context.Context {
	if transport.RequestIDFrom(ctx) != "" {
		return ctx
	}
	return transport.WithRequestID(ctx, uuid.NewString())
}
