package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/liveness"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
	health   liveness.Signal
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }
func (f fakeSource) Health() liveness.Signal                    { return f.health }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:    7,
				goSession.MetricSessionTeardown: 2,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"gosession_login_success_total 7",
		"gosession_session_teardown_total 2",
		"gosession_probe_failure_total 0",
		`gosession_request_latency_seconds_bucket{le="0.025"} 1`,
		`gosession_request_latency_seconds_bucket{le="5"} 28`,
		`gosession_request_latency_seconds_bucket{le="+Inf"} 36`,
		"gosession_request_latency_seconds_count 36",
		"gosession_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderReportsAPIReachability(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		health: liveness.Signal{Status: liveness.StatusUnhealthy, LastCheckedAt: time.Unix(1700000000, 0)},
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE gosession_api_up gauge",
		"gosession_api_up 0",
		"gosession_api_last_checked_seconds 1700000000.000",
		"gosession_audit_dropped_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gosession_login_success_total") {
		t.Fatalf("expected no counters with metrics disabled, got:\n%s", out)
	}
}

func TestRenderOmitsReachabilityBeforeFirstCheck(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{dropped: 1})
	out := exp.Render()
	if strings.Contains(out, "gosession_api_up") {
		t.Fatalf("expected no api_up gauge before a probe, got:\n%s", out)
	}
}

func TestRenderFromClient(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	cfg := goSession.DefaultConfig()
	cfg.Storage.Kind = goSession.StorageMemory
	cfg.API.BaseURL = api.URL
	client, err := goSession.New().WithConfig(cfg).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer client.Close()

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	out := NewPrometheusExporter(client).Render()
	for _, want := range []string{"gosession_logout_total 1", "gosession_api_up 1", "gosession_probe_success_total 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricLoginSuccess: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:    1000,
				goSession.MetricLoginFailure:    40,
				goSession.MetricRequest:         90000,
				goSession.MetricNetworkFailure:  12,
				goSession.MetricSessionTeardown: 30,
				goSession.MetricProbeSuccess:    2880,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricRequestLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
