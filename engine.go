package tokenengine

import (
	"context"
	"time"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/internal/stores"
)

// Engine is the signed-token core. It holds no long-lived state beyond its
// signing keys; every revocation, consumption, and scan count lives behind
// the injected [store.Store]. Construct via [Builder.Build]; all methods are
// safe for concurrent use afterwards.
type Engine struct {
	config Config

	sessionCodec    *claims.Codec
	purposeCodec    *claims.Codec
	attendanceCodec *claims.Codec

	refreshStore *stores.RefreshStore
	nonceStore   *stores.NonceStore
	scanStore    *stores.ScanCounterStore

	audit   *auditDispatcher
	metrics *Metrics
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events shed because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) now() time.Time {
	if e.config.Signing.TimeFunc != nil {
		return e.config.Signing.TimeFunc()
	}
	return time.Now()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	e.audit.Emit(ctx, event)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
