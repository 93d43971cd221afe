package tokenengine

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricSessionIssued counts issued session pairs.
	MetricSessionIssued MetricID = iota
	// MetricAccessVerified counts successful access verifications.
	MetricAccessVerified
	// MetricAccessRejected counts failed access verifications.
	MetricAccessRejected
	// MetricRefreshRotated counts successful rotations.
	MetricRefreshRotated
	// MetricRefreshReuseDetected counts rotations refused because the record
	// was already revoked, the replay signal worth alerting on.
	MetricRefreshReuseDetected
	// MetricSessionInvalidated counts logouts.
	MetricSessionInvalidated
	// MetricPurposeIssued counts issued verification/reset tokens.
	MetricPurposeIssued
	// MetricPurposeConsumed counts successful single-use consumptions.
	MetricPurposeConsumed
	// MetricPurposeReplayed counts consumptions refused as already used.
	MetricPurposeReplayed
	// MetricAttendanceIssued counts issued attendance tokens.
	MetricAttendanceIssued
	// MetricScanAccepted counts accepted scans.
	MetricScanAccepted
	// MetricScanRejected counts rejected scans, any cause.
	MetricScanRejected
	metricIDCount
)

// Metrics is a fixed-size set of atomic counters. All methods are safe for
// concurrent use and never allocate.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc bumps one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
