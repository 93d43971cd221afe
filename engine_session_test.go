package tokenengine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueSessionAndVerifyAccess(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.IssueSession(ctx, testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if want := clock.Now().Add(15 * time.Minute); !pair.AccessExpiresAt.Equal(want) {
		t.Fatalf("access expiry = %v, want %v", pair.AccessExpiresAt, want)
	}
	if want := clock.Now().Add(7 * 24 * time.Hour); !pair.RefreshExpiresAt.Equal(want) {
		t.Fatalf("refresh expiry = %v, want %v", pair.RefreshExpiresAt, want)
	}

	id, err := engine.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if id.UserID != "u1" || id.Role != "club_admin" || id.DisplayName != "Alice Chen" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.SessionEpoch != 2 {
		t.Fatalf("session epoch = %d, want 2", id.SessionEpoch)
	}
}

func TestIssueSessionRememberMe(t *testing.T) {
	engine, clock := newTestEngine(t, nil)

	pair, err := engine.IssueSession(context.Background(), testUser(), true)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if want := clock.Now().Add(30 * 24 * time.Hour); !pair.RefreshExpiresAt.Equal(want) {
		t.Fatalf("remember-me refresh expiry = %v, want %v", pair.RefreshExpiresAt, want)
	}
}

func TestVerifyAccessExpiry(t *testing.T) {
	engine, clock := newTestEngine(t, nil)

	pair, err := engine.IssueSession(context.Background(), testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	clock.Advance(14 * time.Minute)
	if _, err := engine.VerifyAccess(pair.AccessToken); err != nil {
		t.Fatalf("verify at +14m failed: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := engine.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at +16m, got %v", err)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	pair, err := engine.IssueSession(context.Background(), testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	if _, err := engine.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrWrongIntent) {
		t.Fatalf("expected ErrWrongIntent, got %v", err)
	}
}

func TestRotateRefreshOnce(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.IssueSession(ctx, testUser(), true)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	next, err := engine.RotateRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("first rotation failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	// identity survives rotation without a user lookup
	id, err := engine.VerifyAccess(next.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess after rotation failed: %v", err)
	}
	if id.UserID != "u1" || id.Role != "club_admin" || id.SessionEpoch != 2 {
		t.Fatalf("identity lost in rotation: %+v", id)
	}

	if _, err := engine.RotateRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked on second rotation, got %v", err)
	}

	// the new token still rotates
	if _, err := engine.RotateRefresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotation of the new token failed: %v", err)
	}
}

func TestRotateRefreshExpired(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.IssueSession(ctx, testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	clock.Advance(8 * 24 * time.Hour)
	if _, err := engine.RotateRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestInvalidateBlocksRotation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.IssueSession(ctx, testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	if err := engine.Invalidate(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if err := engine.Invalidate(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked on repeated logout, got %v", err)
	}
	if _, err := engine.RotateRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked after logout, got %v", err)
	}

	// logout leaves the already-issued access token alive until expiry
	if _, err := engine.VerifyAccess(pair.AccessToken); err != nil {
		t.Fatalf("access token should survive logout: %v", err)
	}
}

func TestSessionMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.IssueSession(ctx, testUser(), false)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if _, err := engine.RotateRefresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("RotateRefresh failed: %v", err)
	}
	if _, err := engine.RotateRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	// rotation issues a second pair internally but MetricSessionIssued counts
	// only caller-facing IssueSession calls
	if got := snap.Counters[MetricSessionIssued]; got != 1 {
		t.Fatalf("sessions issued = %d, want 1", got)
	}
	if got := snap.Counters[MetricRefreshRotated]; got != 1 {
		t.Fatalf("rotations = %d, want 1", got)
	}
	if got := snap.Counters[MetricRefreshReuseDetected]; got != 1 {
		t.Fatalf("reuse detections = %d, want 1", got)
	}
}
