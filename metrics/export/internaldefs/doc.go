// Package internaldefs exposes stable metric name definitions shared by the
// exporter implementations.
//
// Counter definitions live here so that the Prometheus and OTel exporters
// publish identical metric names. A change in this package affects all
// exporters simultaneously.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
