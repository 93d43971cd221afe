// Package prometheus renders engine counters in Prometheus text exposition
// format.
//
// [NewExporter] accepts a [tokenengine.Engine] and exposes an [http.Handler]
// that reports every counter under a tokenengine_*_total name.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the
//     Handler.
//   - Mutate engine state.
package prometheus
