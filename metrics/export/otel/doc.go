// Package otel publishes authcore counters as OpenTelemetry observable
// instruments.
//
// Every engine counter becomes an Int64ObservableCounter. The guard latency
// histogram becomes a cumulative "<name>_bucket" gauge with an "le"
// attribute per upper bound, plus "<name>_count". One callback reads
// Engine.MetricsSnapshot per collection cycle.
//
// The caller owns the MeterProvider.
package otel
