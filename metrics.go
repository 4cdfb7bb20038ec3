package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one client counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that stored a credential pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins that ended in an error.
	MetricLoginFailure
	// MetricTwoFactorRequired counts logins that asked for a second factor.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts accepted verification codes.
	MetricTwoFactorSuccess
	// MetricTwoFactorRejected counts codes the server refused.
	MetricTwoFactorRejected
	// MetricTwoFactorFormatError counts codes refused locally before any call.
	MetricTwoFactorFormatError
	// MetricTwoFactorFailure counts verification attempts that got no verdict.
	MetricTwoFactorFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricSessionTeardown counts sessions cleared because the API answered 401.
	MetricSessionTeardown
	// MetricLoginRedirect counts redirects to the login boundary.
	MetricLoginRedirect
	// MetricRequest counts calls that received a response.
	MetricRequest
	// MetricNetworkFailure counts calls that received no response.
	MetricNetworkFailure
	// MetricProbeSuccess counts liveness probes that reached the API.
	MetricProbeSuccess
	// MetricProbeFailure counts liveness probes that did not.
	MetricProbeFailure
	// MetricHealthUnhealthy counts transitions into the unhealthy state.
	MetricHealthUnhealthy
	// MetricHealthRecovered counts transitions out of the unhealthy state.
	MetricHealthRecovered
	// MetricRequestLatency is the request latency histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil or disabled Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricRequestLatency] carries a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count of id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics produce empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 5000:
		return 6
	default:
		return 7
	}
}
