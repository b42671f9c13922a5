package tramite

import "sync/atomic"

// MetricID defines a public type used by tramite APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSignInSuccess is an exported constant or variable used by the coordinator.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure is an exported constant or variable used by the coordinator.
	MetricSignInFailure
	// MetricSignOut is an exported constant or variable used by the coordinator.
	MetricSignOut
	// MetricSessionResolved is an exported constant or variable used by the coordinator.
	MetricSessionResolved
	// MetricSessionAbsent is an exported constant or variable used by the coordinator.
	MetricSessionAbsent
	// MetricRecoveryEntered is an exported constant or variable used by the coordinator.
	MetricRecoveryEntered
	// MetricInviteEntered is an exported constant or variable used by the coordinator.
	MetricInviteEntered
	// MetricBadURLSanitized is an exported constant or variable used by the coordinator.
	MetricBadURLSanitized
	// MetricPasswordSetSuccess is an exported constant or variable used by the coordinator.
	MetricPasswordSetSuccess
	// MetricPasswordSetFailure is an exported constant or variable used by the coordinator.
	MetricPasswordSetFailure
	// MetricRouteRendered is an exported constant or variable used by the coordinator.
	MetricRouteRendered
	// MetricRouteUnknown is an exported constant or variable used by the coordinator.
	MetricRouteUnknown

	metricCount
)

var metricNames = [metricCount]string{
	MetricSignInSuccess:      "sign_in_success",
	MetricSignInFailure:      "sign_in_failure",
	MetricSignOut:            "sign_out",
	MetricSessionResolved:    "session_resolved",
	MetricSessionAbsent:      "session_absent",
	MetricRecoveryEntered:    "recovery_entered",
	MetricInviteEntered:      "invite_entered",
	MetricBadURLSanitized:    "bad_url_sanitized",
	MetricPasswordSetSuccess: "password_set_success",
	MetricPasswordSetFailure: "password_set_failure",
	MetricRouteRendered:      "route_rendered",
	MetricRouteUnknown:       "route_unknown",
}

// MetricName returns the stable exposition name of id, or "" for an
// unknown id.
func MetricName(id MetricID) string {
	if id >= metricCount {
		return ""
	}
	return metricNames[id]
}

// MetricsSnapshot defines a public type used by tramite APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[string]uint64
}

type metricsRegistry struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

func newMetricsRegistry(enabled bool) *metricsRegistry {
	return &metricsRegistry{enabled: enabled}
}

func (m *metricsRegistry) inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *metricsRegistry) snapshot() MetricsSnapshot {
	out := MetricsSnapshot{Counters: make(map[string]uint64, metricCount)}
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out.Counters[metricNames[id]] = m.counters[id].Load()
	}
	return out
}
