package tramite

import "testing"

func TestMetricsRegistryCounts(t *testing.T) {
	m := newMetricsRegistry(true)
	m.inc(MetricSignInSuccess)
	m.inc(MetricSignInSuccess)
	m.inc(MetricRouteUnknown)

	snap := m.snapshot()
	if snap.Counters["sign_in_success"] != 2 {
		t.Fatalf("sign_in_success = %d", snap.Counters["sign_in_success"])
	}
	if snap.Counters["route_unknown"] != 1 {
		t.Fatalf("route_unknown = %d", snap.Counters["route_unknown"])
	}
	if snap.Counters["sign_out"] != 0 {
		t.Fatalf("untouched counter should be zero")
	}
}

func TestMetricsRegistryDisabled(t *testing.T) {
	m := newMetricsRegistry(false)
	m.inc(MetricSignInSuccess)
	snap := m.snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled registry must report nothing, got %+v", snap.Counters)
	}
}

func TestMetricNameBounds(t *testing.T) {
	if MetricName(MetricSignInSuccess) != "sign_in_success" {
		t.Fatalf("MetricName = %q", MetricName(MetricSignInSuccess))
	}
	if MetricName(metricCount) != "" {
		t.Fatalf("out-of-range id must map to empty name")
	}
}
