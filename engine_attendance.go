package tokenengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/internal/stores"
)

// IssueAttendanceToken mints an event-scoped token valid inside
// [validFrom, validUntil], rendered externally as a QR payload. scanLimit
// caps accepted scans; zero means unlimited. An unlimited token is the
// intended one-QR-per-event workflow: the engine proves the scan opportunity
// is genuine and still open, and recording which attendee scanned is the
// caller's job.
func (e *Engine) IssueAttendanceToken(ctx context.Context, eventID string, validFrom, validUntil time.Time, scanLimit int) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if eventID == "" {
		return "", errors.New("attendance token requires an event id")
	}
	if !validUntil.After(validFrom) {
		return "", errors.New("attendance window must end after it starts")
	}
	if validUntil.Sub(validFrom) > e.config.Attendance.MaxWindow {
		return "", fmt.Errorf("attendance window exceeds maximum of %s", e.config.Attendance.MaxWindow)
	}
	if scanLimit < 0 {
		return "", errors.New("scan limit must not be negative")
	}

	now := e.now()
	issuedAt := now
	if validFrom.Before(issuedAt) {
		// retroactive windows keep iat sane for verifiers
		issuedAt = validFrom
	}

	token, err := e.attendanceCodec.Sign(claims.Claims{
		Intent:    claims.IntentAttendance,
		EventID:   eventID,
		ScanLimit: scanLimit,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(validFrom),
			ExpiresAt: jwt.NewNumericDate(validUntil),
		},
	})

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditAttendanceIssued,
		Intent:    string(claims.IntentAttendance),
		EventID:   eventID,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return "", err
	}
	e.metricInc(MetricAttendanceIssued)
	return token, nil
}

// ValidateScan checks a presented attendance token for scanningEventID:
// signature, intent, validity window, event binding, and, when the token
// carries a scan ceiling, one atomic counter increment. Two concurrent scans
// racing for the last slot resolve to exactly one success and one
// ErrScanLimitExceeded.
func (e *Engine) ValidateScan(ctx context.Context, tokenStr, scanningEventID string) (*ScanResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	cl, err := e.attendanceCodec.Verify(tokenStr, claims.IntentAttendance)
	if err != nil {
		e.metricInc(MetricScanRejected)
		return nil, err
	}
	if cl.EventID == "" || cl.ID == "" {
		e.metricInc(MetricScanRejected)
		return nil, fmt.Errorf("%w: attendance claims incomplete", ErrMalformedToken)
	}

	if cl.EventID != scanningEventID {
		e.metricInc(MetricScanRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditAttendanceScan,
			Intent:    string(claims.IntentAttendance),
			EventID:   scanningEventID,
			TokenID:   cl.ID,
			Error:     ErrWrongEvent.Error(),
		})
		return nil, ErrWrongEvent
	}

	result := &ScanResult{
		EventID:   cl.EventID,
		IssuedAt:  cl.IssuedAt.Time,
		ScanLimit: cl.ScanLimit,
	}

	if cl.ScanLimit > 0 {
		remaining := cl.ExpiresAt.Time.Sub(e.now()) + e.config.Signing.Leeway
		used, err := e.scanStore.Increment(ctx, cl.ID, cl.ScanLimit, remaining)
		if err != nil {
			e.metricInc(MetricScanRejected)
			if errors.Is(err, stores.ErrScanLimitReached) {
				err = ErrScanLimitExceeded
			}
			e.emitAudit(ctx, AuditEvent{
				EventType: AuditAttendanceScan,
				Intent:    string(claims.IntentAttendance),
				EventID:   cl.EventID,
				TokenID:   cl.ID,
				Error:     err.Error(),
			})
			return nil, err
		}
		result.ScansUsed = used
	}

	e.metricInc(MetricScanAccepted)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditAttendanceScan,
		Intent:    string(claims.IntentAttendance),
		EventID:   cl.EventID,
		TokenID:   cl.ID,
		Success:   true,
	})
	return result, nil
}
