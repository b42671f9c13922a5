// Package otel provides OpenTelemetry metric exporter bindings for
// coordinator counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter instrument per
// coordinator metric. A single callback reads [tramite.Coordinator.Metrics]
// on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate coordinator state.
package otel
