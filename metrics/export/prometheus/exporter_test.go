package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tokenengine "github.com/campushub/tokenengine"
	"github.com/campushub/tokenengine/store"
)

func exporterTestConfig() tokenengine.Config {
	return tokenengine.Config{
		Signing: tokenengine.SigningConfig{
			Method:   "hs256",
			Issuer:   "campushub",
			Audience: "campushub-web",
		},
		Session: tokenengine.SessionConfig{
			Key:                  []byte("session-secret-0123456789abcdef"),
			AccessTTL:            15 * time.Minute,
			RefreshTTL:           7 * 24 * time.Hour,
			RememberMeRefreshTTL: 30 * 24 * time.Hour,
		},
		Purpose: tokenengine.PurposeConfig{
			Key:              []byte("purpose-secret-0123456789abcdef"),
			EmailVerifyTTL:   24 * time.Hour,
			PasswordResetTTL: time.Hour,
		},
		Attendance: tokenengine.AttendanceConfig{
			Key:       []byte("attend-secret-0123456789abcdef0"),
			MaxWindow: 7 * 24 * time.Hour,
		},
		Metrics: tokenengine.MetricsConfig{Enabled: true},
	}
}

type nopStore struct{}

func (nopStore) PutIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}

func (nopStore) CompareAndSwap(context.Context, string, []byte, []byte, time.Duration) (bool, error) {
	return true, nil
}

func (nopStore) Get(context.Context, string) ([]byte, error) {
	return nil, store.ErrKeyNotFound
}

type fakeSource struct {
	snapshot tokenengine.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() tokenengine.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                         { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: tokenengine.MetricsSnapshot{
			Counters: map[tokenengine.MetricID]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersAndAuditDropped(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: tokenengine.MetricsSnapshot{
			Counters: map[tokenengine.MetricID]uint64{
				tokenengine.MetricSessionIssued:   7,
				tokenengine.MetricRefreshRotated:  3,
				tokenengine.MetricPurposeReplayed: 1,
				tokenengine.MetricScanAccepted:    12,
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"tokenengine_session_issued_total 7",
		"tokenengine_refresh_rotated_total 3",
		"tokenengine_purpose_replayed_total 1",
		"tokenengine_scan_accepted_total 12",
		"tokenengine_access_verified_total 0",
		"tokenengine_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: tokenengine.MetricsSnapshot{
			Counters: map[tokenengine.MetricID]uint64{
				tokenengine.MetricSessionIssued: 1,
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderReadsLiveEngine(t *testing.T) {
	engine, err := tokenengine.New().
		WithConfig(exporterTestConfig()).
		WithStore(nopStore{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.VerifyAccess("definitely-not-a-token"); err == nil {
		t.Fatal("expected verification failure")
	}

	out := NewExporter(engine).Render()
	if !strings.Contains(out, "tokenengine_access_rejected_total 1") {
		t.Fatalf("expected rejected counter at 1, got:\n%s", out)
	}
}
