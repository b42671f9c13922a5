// Package prometheus provides Prometheus exposition for coordinator metrics.
//
// [NewPrometheusExporter] accepts a [tramite.Coordinator] and exposes an
// [http.Handler] that renders all coordinator counters in Prometheus text
// exposition format. Counter names are prefixed tramite_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate coordinator state.
package prometheus
