// Package otel provides OpenTelemetry metric bindings for engine counters.
//
// [NewExporter] registers an Int64ObservableCounter per engine metric and one
// callback that reads [tokenengine.Engine.MetricsSnapshot] on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
