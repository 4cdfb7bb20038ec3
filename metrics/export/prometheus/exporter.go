package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/liveness"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. *goSession.Client satisfies it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	Health() liveness.Signal
}

// PrometheusExporter renders client counters, request latency and API reachability
// in the Prometheus text exposition format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter reads from client on every scrape.
func NewPrometheusExporter(client *goSession.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves [PrometheusExporter.Render].
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text. It is empty while there is nothing to report:
// metrics disabled, no dropped audit event and no completed probe.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	up, lastChecked, probed := internaldefs.Health(p.source.Health())
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 && !probed {
		return ""
	}

	var e exposition
	if probed {
		e.family(internaldefs.APIUpName, internaldefs.APIUpHelp, "gauge")
		e.sample(internaldefs.APIUpName, "", strconv.FormatInt(up, 10))
		e.family(internaldefs.APILastCheckedName, internaldefs.APILastCheckedHelp, "gauge")
		e.sample(internaldefs.APILastCheckedName, "", strconv.FormatFloat(lastChecked, 'f', 3, 64))
	}

	if len(snapshot.Counters) > 0 {
		for _, def := range internaldefs.CounterDefs {
			e.family(def.Name, def.Help, "counter")
			e.sample(def.Name, "", strconv.FormatUint(snapshot.Counters[def.ID], 10))
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		e.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			e.sample(def.Name+"_bucket", `le="`+le+`"`, strconv.FormatUint(cumulative[i], 10))
		}
		e.sample(def.Name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
		// The client keeps bucket counts only.
		e.sample(def.Name+"_sum", "", "0")
	}

	e.family(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	e.sample(internaldefs.AuditDroppedName, "", strconv.FormatUint(dropped, 10))

	return e.String()
}

type exposition struct {
	strings.Builder
}

func (e *exposition) family(name, help, kind string) {
	e.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	e.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (e *exposition) sample(name, labels, value string) {
	e.WriteString(name)
	if labels != "" {
		e.WriteString("{" + labels + "}")
	}
	e.WriteString(" " + value + "\n")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
