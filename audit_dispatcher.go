package goSession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/transport"
)

// auditDispatcher hands events to the sink from a single goroutine so session
// operations never wait on a slow sink. A nil dispatcher drops everything.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent

	// mu guards queue against close while an Emit is sending on it.
	mu     sync.RWMutex
	closed bool

	stopped chan struct{}
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stopped:    make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *auditDispatcher) deliver() {
	defer close(d.stopped)
	for ev := range d.queue {
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit stamps event and queues it. The request id is taken from ctx when the
// event carries none, which ties login and verification records to the HTTP call
// that produced them. With DropIfFull a full queue counts a drop; otherwise Emit
// waits for room or for ctx.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = transport.RequestIDFrom(ctx)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close delivers what is queued and stops the goroutine. Later emits are ignored.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
