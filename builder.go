package goSession

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/MrEthical07/goSession/transport"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. It is single use.
type Builder struct {
	config Config

	store      tokenstore.Store
	redis      redis.UniversalClient
	httpClient *http.Client
	navigator  transport.Navigator
	logger     *slog.Logger
	auditSink  AuditSink

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTokenStore injects a store and bypasses Config.Storage. Two clients given
// distinct stores are fully isolated.
func (b *Builder) WithTokenStore(s tokenstore.Store) *Builder {
	b.store = s
	return b
}

// WithRedis supplies the client used when Config.Storage.Kind is redis. The
// caller keeps ownership; Client.Close does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the HTTP client used for every call. Its Timeout is
// replaced with Config.API.Timeout.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithNavigator sets the port used to redirect to the login page after a 401.
// Without one, a 401 still clears the session but nothing is redirected.
func (b *Builder) WithNavigator(n transport.Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, opens the token store and wires the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- TOKEN STORE --------
	store, err := b.openStore(c, cfg.Storage)
	if err != nil {
		return nil, err
	}
	c.store = store

	// -------- TRANSPORT --------
	opts := []transport.Option{
		transport.WithLogger(logger),
		transport.WithObserver(c.observe),
	}
	if b.httpClient != nil {
		opts = append(opts, transport.WithHTTPClient(b.httpClient))
	}
	if b.navigator != nil {
		opts = append(opts, transport.WithNavigator(b.navigator))
	}
	tr, err := transport.New(transport.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		LoginPath:   cfg.API.LoginPath,
		PublicPaths: cfg.API.PublicPaths,
	}, store, opts...)
	if err != nil {
		if cerr := c.closeRedis(); cerr != nil {
			logger.Warn("close redis after failed build", "error", cerr)
		}
		return nil, err
	}
	c.transport = tr

	sink := b.auditSink
	if sink == nil {
		sink = NewSlogSink(logger)
	}
	c.audit = newAuditDispatcher(cfg.Audit, sink)
	c.flows = flows.Deps{
		Login:     c.loginDeps(),
		TwoFactor: c.twoFactorDeps(),
		Logout:    c.logoutDeps(),
	}

	b.built = true
	return c, nil
}

func (b *Builder) openStore(c *Client, cfg StorageConfig) (tokenstore.Store, error) {
	if b.store != nil {
		return b.store, nil
	}

	switch cfg.Kind {
	case StorageMemory:
		return tokenstore.NewMemoryStore(), nil
	case StorageRedis:
		client := b.redis
		if client == nil {
			if cfg.RedisAddr == "" {
				return nil, ErrRedisRequired
			}
			owned := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			c.ownedRedis = owned
			client = owned
		}
		return tokenstore.NewRedisStore(client, cfg.RedisPrefix, cfg.RedisTTL), nil
	default:
		path := cfg.FilePath
		if path == "" {
			p, err := defaultTokenPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		fs, err := tokenstore.NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		return fs, nil
	}
}
