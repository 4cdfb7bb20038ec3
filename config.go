package goSession

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the full client configuration. Build copies it; later changes to the
// caller's value have no effect on a built client.
type Config struct {
	API      APIConfig
	Storage  StorageConfig
	Liveness LivenessConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote API and names the navigation boundary.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration

	LoginEndpoint     string
	TwoFactorEndpoint string
	MeEndpoint        string

	// LoginPath is where the navigator is sent after a 401.
	LoginPath string
	// PublicPaths never trigger a redirect. Prefix match on the path.
	PublicPaths []string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageKind selects the token store backend.
type StorageKind string

const (
	StorageFile   StorageKind = "file"
	StorageRedis  StorageKind = "redis"
	StorageMemory StorageKind = "memory"
)

// StorageConfig selects and parameterizes the token store. It is ignored when
// Builder.WithTokenStore is used.
type StorageConfig struct {
	Kind StorageKind
	// FilePath defaults to <user config dir>/gosession/session.json.
	FilePath string

	RedisAddr   string
	RedisPrefix string
	// RedisTTL of zero keeps tokens until cleared.
	RedisTTL time.Duration
}

/*
====================================
LIVENESS CONFIG
====================================
*/

type LivenessConfig struct {
	Interval time.Duration
	// Timeout bounds one probe. Zero means the interval.
	Timeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const (
	defaultBaseURL     = "http://localhost:8080/api"
	defaultAPITimeout  = 30 * time.Second
	defaultHealthEvery = 30 * time.Second
	defaultRedisPrefix = "gosession"
)

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:           defaultBaseURL,
			Timeout:           defaultAPITimeout,
			LoginEndpoint:     "/auth/login",
			TwoFactorEndpoint: "/auth/2fa/verify",
			MeEndpoint:        "/auth/me",
			LoginPath:         "/login",
			PublicPaths:       []string{"/login", "/register"},
		},
		Storage: StorageConfig{
			Kind:        StorageFile,
			RedisPrefix: defaultRedisPrefix,
		},
		Liveness: LivenessConfig{
			Interval: defaultHealthEvery,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the baseline configuration: local API, file token store,
// 30s timeouts and health checks, audit and metrics off.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.API.PublicPaths != nil {
		out.API.PublicPaths = append([]string(nil), cfg.API.PublicPaths...)
	}
	return out
}

func defaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve token store path: %w", err)
	}
	return filepath.Join(dir, "gosession", "session.json"), nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || c.API.BaseURL == "" {
		return errors.New("API BaseURL must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}
	for name, p := range map[string]string{
		"LoginEndpoint":     c.API.LoginEndpoint,
		"TwoFactorEndpoint": c.API.TwoFactorEndpoint,
		"MeEndpoint":        c.API.MeEndpoint,
		"LoginPath":         c.API.LoginPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("API %s must start with /", name)
		}
	}
	for _, p := range c.API.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("API PublicPaths entry %q must start with /", p)
		}
	}

	// Storage
	switch c.Storage.Kind {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisPrefix) == "" {
			return errors.New("Storage RedisPrefix must not be blank")
		}
		if c.Storage.RedisTTL < 0 {
			return errors.New("Storage RedisTTL must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported Storage Kind %q", c.Storage.Kind)
	}

	// Liveness
	if c.Liveness.Interval <= 0 {
		return errors.New("Liveness Interval must be > 0")
	}
	if c.Liveness.Timeout < 0 {
		return errors.New("Liveness Timeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult lists warnings in a stable order.
type LintResult []LintWarning

// Codes returns the warning codes.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports risky but valid settings. It assumes c already validates.
func (c Config) Lint() LintResult {
	var ws LintResult

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopbackHost(u.Hostname()) {
		ws = append(ws, LintWarning{"plaintext_api", "bearer tokens are sent over plain http to a non-loopback host"})
	}
	if c.Storage.Kind == StorageMemory {
		ws = append(ws, LintWarning{"volatile_store", "tokens are lost when the process exits"})
	}
	if c.Liveness.Interval < 5*time.Second {
		ws = append(ws, LintWarning{"probe_interval_short", "liveness probes more often than every 5s"})
	}
	if c.Liveness.Timeout > c.Liveness.Interval {
		ws = append(ws, LintWarning{"probe_timeout_exceeds_interval", "probe timeout is longer than the interval; overlapping ticks are skipped"})
	}
	if len(c.API.PublicPaths) == 0 {
		ws = append(ws, LintWarning{"no_public_paths", "every location redirects on 401, including the login page"})
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		ws = append(ws, LintWarning{"audit_blocking", "a slow audit sink will block session operations"})
	}
	return ws
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
