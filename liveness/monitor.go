package liveness

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the probe period used when none is configured.
const DefaultInterval = 30 * time.Second

// ErrRunning is returned by Start on a monitor that is already started.
var ErrRunning = errors.New("liveness: monitor already running")

// Status is the health of the probed endpoint.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Signal is the latest health reading. LastCheckedAt is zero until the first probe
// completes.
type Signal struct {
	Status        Status
	LastCheckedAt time.Time
}

// Prober tests reachability. A nil error means a response was received, whatever
// its status.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to [Prober].
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Hooks receive edge-triggered transitions. Nil hooks are skipped. Hooks run on the
// probing goroutine, outside the monitor lock.
type Hooks struct {
	OnUnhealthy func(Signal)
	OnRecovered func(Signal)
}

// Option configures a [Monitor].
type Option func(*Monitor)

// WithInterval sets the probe period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTimeout bounds each probe. It defaults to the interval.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithSchedule replaces the fixed interval with an arbitrary cron schedule.
func WithSchedule(s cron.Schedule) Option {
	return func(m *Monitor) { m.schedule = s }
}

// WithLogger sets the logger used for transitions and scheduler messages.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// Monitor is safe for concurrent use. A stopped monitor can be started again.
type Monitor struct {
	prober   Prober
	hooks    Hooks
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	schedule cron.Schedule
	now      func() time.Time

	mu      sync.Mutex
	signal  Signal
	gen     uint64
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// New creates a stopped monitor for p.
func New(p Prober, hooks Hooks, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   p,
		hooks:    hooks,
		logger:   slog.Default(),
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.timeout <= 0 {
		m.timeout = m.interval
	}
	if m.schedule == nil {
		m.schedule = cron.Every(m.interval)
	}
	return m
}

// Signal returns the latest reading.
func (m *Monitor) Signal() Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// Running reports whether the schedule is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start probes once immediately and then on every tick of the schedule until Stop
// is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(m.logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithLogger(cronLogger))
	chain := cron.NewChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger))

	m.gen++
	gen := m.gen
	m.running = true
	m.cron = c
	m.cancel = cancel
	m.mu.Unlock()

	// The immediate run and the ticks share one wrapped job, and with it the
	// overlap guard.
	job := chain.Then(cron.FuncJob(func() { m.tick(runCtx, gen) }))
	c.Schedule(m.schedule, job)
	c.Start()
	go job.Run()

	context.AfterFunc(runCtx, func() { m.stop(gen) })

	m.logger.Info("liveness monitor started", "interval", m.interval.String())
	return nil
}

// Stop cancels the schedule. It is safe to call on a stopped monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.stop(gen)
}

func (m *Monitor) stop(gen uint64) {
	m.mu.Lock()
	if !m.running || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.gen++
	c, cancel := m.cron, m.cancel
	m.cron, m.cancel = nil, nil
	m.mu.Unlock()

	c.Stop()
	cancel()
	m.logger.Info("liveness monitor stopped")
}

// Check runs one probe outside the schedule and returns the resulting signal.
func (m *Monitor) Check(ctx context.Context) Signal {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	return m.probe(ctx, gen)
}

func (m *Monitor) tick(ctx context.Context, gen uint64) {
	if ctx.Err() != nil {
		return
	}
	m.probe(ctx, gen)
}

func (m *Monitor) probe(ctx context.Context, gen uint64) Signal {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Probe(probeCtx)
	cancel()
	return m.record(err, gen)
}

func (m *Monitor) record(err error, gen uint64) Signal {
	m.mu.Lock()
	if gen != m.gen {
		sig := m.signal
		m.mu.Unlock()
		return sig
	}

	prev := m.signal.Status
	next := StatusHealthy
	if err != nil {
		next = StatusUnhealthy
	}
	m.signal = Signal{Status: next, LastCheckedAt: m.now()}
	sig := m.signal
	m.mu.Unlock()

	switch {
	case next == StatusUnhealthy && prev != StatusUnhealthy:
		m.logger.Warn("api unreachable", "error", err)
		if m.hooks.OnUnhealthy != nil {
			m.hooks.OnUnhealthy(sig)
		}
	case next == StatusHealthy && prev == StatusUnhealthy:
		m.logger.Info("api reachable again")
		if m.hooks.OnRecovered != nil {
			m.hooks.OnRecovered(sig)
		}
	}
	return sig
}
