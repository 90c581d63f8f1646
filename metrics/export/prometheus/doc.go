// Package prometheus exposes authcore counters through a
// client_golang Collector.
//
// [NewPrometheusExporter] wraps an [authcore.Engine]. The exporter is a
// [prometheus.Collector] that reads Engine.MetricsSnapshot on every scrape,
// and [PrometheusExporter.Handler] serves it from a private registry.
// Counter names are authcore_*_total; the single histogram is
// authcore_guard_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers either mount
//     Handler or register the exporter themselves.
//   - Mutate engine state.
package prometheus
