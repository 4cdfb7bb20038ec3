package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/liveness"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes on every collection. *goSession.Client
// satisfies it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	Health() liveness.Signal
}

type latency struct {
	id      goSession.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	// le holds one pre-built attribute option per bucket bound.
	le []metric.ObserveOption
}

// OTelExporter publishes client metrics and API reachability as observable
// instruments read on every collection.
type OTelExporter struct {
	source       Source
	registration metric.Registration

	counters    map[goSession.MetricID]metric.Int64ObservableCounter
	latencies   []latency
	dropped     metric.Int64ObservableCounter
	apiUp       metric.Int64ObservableGauge
	lastChecked metric.Float64ObservableGauge
}

func NewOTelExporter(meter metric.Meter, client *goSession.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[goSession.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		l := latency{id: def.ID}
		var err error
		if l.buckets, err = meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound, labelled le."),
			metric.WithUnit("{request}"),
		); err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		if l.count, err = meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."),
			metric.WithUnit("{request}"),
		); err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}
		for _, le := range internaldefs.HistogramBounds {
			l.le = append(l.le, metric.WithAttributes(attribute.String("le", le)))
		}
		e.latencies = append(e.latencies, l)
		observables = append(observables, l.buckets, l.count)
	}

	var err error
	if e.dropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	if e.apiUp, err = meter.Int64ObservableGauge(internaldefs.APIUpName,
		metric.WithDescription(internaldefs.APIUpHelp),
	); err != nil {
		return nil, fmt.Errorf("create api up gauge: %w", err)
	}
	if e.lastChecked, err = meter.Float64ObservableGauge(internaldefs.APILastCheckedName,
		metric.WithDescription(internaldefs.APILastCheckedHelp),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create api last checked gauge: %w", err)
	}
	observables = append(observables, e.dropped, e.apiUp, e.lastChecked)

	if e.registration, err = meter.RegisterCallback(e.observe, observables...); err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		if v, ok := snapshot.Counters[id]; ok {
			o.ObserveInt64(ins, int64(v))
		}
	}
	for _, l := range e.latencies {
		raw, ok := snapshot.Histograms[l.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, opt := range l.le {
			o.ObserveInt64(l.buckets, int64(cumulative[i]), opt)
		}
		o.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))

	// Reachability is reported once a probe has completed.
	if up, last, ok := internaldefs.Health(e.source.Health()); ok {
		o.ObserveInt64(e.apiUp, up)
		o.ObserveFloat64(e.lastChecked, last)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
