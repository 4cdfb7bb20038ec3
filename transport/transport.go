package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every call made through a [Transport].
	DefaultTimeout = 30 * time.Second
	// DefaultContentType is sent with every request body.
	DefaultContentType = "application/json"

	maxErrorBody = 1 << 20
)

// Config is fixed per transport; nothing in it varies per call.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ContentType string
	// LoginPath is where the navigator is sent after a 401.
	LoginPath string
	// PublicPaths are locations inside the public auth boundary. A 401 received while
	// the navigator is on one of them does not redirect.
	PublicPaths []string
}

// Navigator is the port through which the transport reads and changes the
// application's current location.
type Navigator interface {
	Location() string
	Redirect(path string)
}

// EventKind classifies transport events reported to an [Observer].
type EventKind uint8

const (
	// EventResponse is reported for every call that received a response.
	EventResponse EventKind = iota
	// EventUnauthenticated is reported after a 401 tore the session down.
	EventUnauthenticated
	// EventNetworkFailure is reported when no response was received.
	EventNetworkFailure
)

// Event describes one observed call.
type Event struct {
	Kind       EventKind
	RequestID  string
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	Anonymous  bool
	// Redirected is set on EventUnauthenticated when the navigator was sent to LoginPath.
	Redirected bool
	Err        error
}

// Observer receives transport events. It runs on the calling goroutine and must not block.
type Observer func(ctx context.Context, ev Event)

// Option configures a [Transport].
type Option func(*Transport)

// WithHTTPClient replaces the underlying client. Its Timeout is overwritten with
// Config.Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			cp := *c
			t.http = &cp
		}
	}
}

// WithNavigator sets the navigation port used on 401.
func WithNavigator(n Navigator) Option {
	return func(t *Transport) { t.nav = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(t *Transport) { t.observer = o }
}

// Transport sends requests to the remote API. It is safe for concurrent use; calls
// share nothing but the token store, which each call reads at dispatch time.
type Transport struct {
	cfg      Config
	base     *url.URL
	store    tokenstore.Store
	http     *http.Client
	nav      Navigator
	logger   *slog.Logger
	observer Observer
}

// New validates cfg and returns a [Transport] reading credentials from store.
func New(cfg Config, store tokenstore.Store, opts ...Option) (*Transport, error) {
	if store == nil {
		return nil, errors.New("transport: token store required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("transport: invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ContentType == "" {
		cfg.ContentType = DefaultContentType
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	cfg.PublicPaths = append([]string(nil), cfg.PublicPaths...)

	t := &Transport{
		cfg:    cfg,
		base:   base,
		store:  store,
		http:   &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.http.Timeout = cfg.Timeout

	return t, nil
}

// Config returns the transport configuration.
func (t *Transport) Config() Config {
	cfg := t.cfg
	cfg.PublicPaths = append([]string(nil), t.cfg.PublicPaths...)
	return cfg
}

// URL resolves path against the base URL.
func (t *Transport) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return t.base.String() + "/" + strings.TrimLeft(path, "/")
}

// NewRequest builds a request for path. body may be nil, an io.Reader, or any value
// that encodes as JSON.
func (t *Transport) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		r = b
	case []byte:
		r = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.URL(path), r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r != nil {
		req.Header.Set("Content-Type", t.cfg.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Send dispatches req and returns the response whatever its status. The only errors
// are [*NetworkError] and caller cancellation. A 401 on a credentialed, guarded
// call tears the session down before Send returns.
func (t *Transport) Send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	flags := flagsFrom(ctx)

	rid := req.Header.Get("X-Request-ID")
	if rid == "" {
		rid = flags.requestID
		if rid == "" {
			rid = uuid.NewString()
		}
		req.Header.Set("X-Request-ID", rid)
	}

	if !flags.anonymous {
		token := flags.bearer
		if token == "" {
			token, _ = t.store.Get(ctx, tokenstore.Access)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	ev := Event{
		Kind:      EventResponse,
		RequestID: rid,
		Method:    req.Method,
		Path:      req.URL.Path,
		Anonymous: flags.anonymous,
	}

	start := time.Now()
	resp, err := t.http.Do(req)
	ev.Duration = time.Since(start)

	l := t.logger.With(
		slog.String("request_id", rid),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			l.Debug("http call cancelled", slog.Duration("dur", ev.Duration))
			return nil, ctx.Err()
		}
		netErr := &NetworkError{Method: req.Method, Path: req.URL.Path, Err: err}
		ev.Kind = EventNetworkFailure
		ev.Err = err
		l.Warn("http call failed", slog.Duration("dur", ev.Duration), slog.String("error", err.Error()))
		t.observe(ctx, ev)
		return nil, netErr
	}

	ev.StatusCode = resp.StatusCode
	l.Info("http", slog.Int("status", resp.StatusCode), slog.Duration("dur", ev.Duration))
	t.observe(ctx, ev)

	if resp.StatusCode == http.StatusUnauthorized && !flags.anonymous && !flags.noGuard {
		t.teardown(ctx, ev)
	}

	return resp, nil
}

// Do sends a JSON request and decodes a 2xx response into out (when non-nil).
// Non-2xx responses are returned as [*APIError].
func (t *Transport) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := t.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := t.Send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// InPublicBoundary reports whether location lies under one of the public paths.
func (t *Transport) InPublicBoundary(location string) bool {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	for _, p := range t.cfg.PublicPaths {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if location == p || strings.HasPrefix(location, p+"/") {
			return true
		}
	}
	return false
}

func (t *Transport) teardown(ctx context.Context, ev Event) {
	if err := t.store.Clear(context.WithoutCancel(ctx)); err != nil {
		t.logger.Error("token store clear failed", slog.String("request_id", ev.RequestID), slog.String("error", err.Error()))
	}

	ev.Kind = EventUnauthenticated
	if t.nav != nil && !t.InPublicBoundary(t.nav.Location()) {
		t.nav.Redirect(t.cfg.LoginPath)
		ev.Redirected = true
	}
	t.logger.Info("session cleared after 401",
		slog.String("request_id", ev.RequestID),
		slog.Bool("redirected", ev.Redirected),
	)
	t.observe(ctx, ev)
}

func (t *Transport) observe(ctx context.Context, ev Event) {
	if t.observer != nil {
		t.observer(ctx, ev)
	}
}
