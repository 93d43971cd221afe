package internaldefs

import (
	tokenengine "github.com/campushub/tokenengine"
)

// CounterDef pairs one engine counter with its stable exported name. Defs are
// configured here once and treated as immutable.
type CounterDef struct {
	ID   tokenengine.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order. The Prometheus and
// OTel exporters both iterate this slice, so the two surfaces always agree on
// names and help text.
var CounterDefs = []CounterDef{
	{ID: tokenengine.MetricSessionIssued, Name: "tokenengine_session_issued_total", Help: "Issued session token pairs."},
	{ID: tokenengine.MetricAccessVerified, Name: "tokenengine_access_verified_total", Help: "Successful access token verifications."},
	{ID: tokenengine.MetricAccessRejected, Name: "tokenengine_access_rejected_total", Help: "Rejected access token verifications."},
	{ID: tokenengine.MetricRefreshRotated, Name: "tokenengine_refresh_rotated_total", Help: "Successful refresh rotations."},
	{ID: tokenengine.MetricRefreshReuseDetected, Name: "tokenengine_refresh_reuse_detected_total", Help: "Rotations refused because the record was already revoked."},
	{ID: tokenengine.MetricSessionInvalidated, Name: "tokenengine_session_invalidated_total", Help: "Session invalidations (logouts)."},
	{ID: tokenengine.MetricPurposeIssued, Name: "tokenengine_purpose_issued_total", Help: "Issued email verification and password reset tokens."},
	{ID: tokenengine.MetricPurposeConsumed, Name: "tokenengine_purpose_consumed_total", Help: "Successful single-use token consumptions."},
	{ID: tokenengine.MetricPurposeReplayed, Name: "tokenengine_purpose_replayed_total", Help: "Consumptions refused because the token was already used."},
	{ID: tokenengine.MetricAttendanceIssued, Name: "tokenengine_attendance_issued_total", Help: "Issued attendance tokens."},
	{ID: tokenengine.MetricScanAccepted, Name: "tokenengine_scan_accepted_total", Help: "Accepted attendance scans."},
	{ID: tokenengine.MetricScanRejected, Name: "tokenengine_scan_rejected_total", Help: "Rejected attendance scans, any cause."},
}

// AuditDroppedName is the exported counter for audit events shed under
// dispatcher backpressure. It has no MetricID; the value comes from
// [tokenengine.Engine.AuditDropped].
const AuditDroppedName = "tokenengine_audit_dropped_total"

// AuditDroppedHelp documents AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
