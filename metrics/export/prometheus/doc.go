// Package prometheus renders goSession client metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [goSession.Client] and exposes an [http.Handler].
// Counters are named gosession_*_total and the single histogram is
// gosession_request_latency_seconds. gosession_api_up reports whether the latest
// liveness probe reached the API. Nothing is registered globally.
package prometheus
