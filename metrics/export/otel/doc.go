// Package otel binds goSession client metrics to OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers one counter per client counter, a bucket gauge
// labelled le for request latency, and the gosession_api_up and
// gosession_api_last_checked_seconds gauges fed by [goSession.Client.Health].
// Reachability is absent until a probe completes. Callers own the MeterProvider.
package otel
