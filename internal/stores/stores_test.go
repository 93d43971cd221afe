package stores

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campushub/tokenengine/store"
)

// memStore is a minimal in-memory store.Store with per-store locking, enough
// to exercise the typed stores without a Redis round-trip.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) PutIfAbsent(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = append([]byte(nil), value...)
	return true, nil
}

func (m *memStore) CompareAndSwap(_ context.Context, key string, expected, next []byte, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.data[key]
	if !ok || string(current) != string(expected) {
		return false, nil
	}
	m.data[key] = append([]byte(nil), next...)
	return true, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func TestRefreshRecordRoundTrip(t *testing.T) {
	in := &RefreshRecord{
		UserID:       "u1",
		Role:         "club_admin",
		DisplayName:  "Alice Chen",
		SessionEpoch: 7,
		Remember:     true,
		IssuedAt:     1740000000,
	}

	encoded, err := encodeRefreshRecord(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out, err := decodeRefreshRecord(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip drifted: %+v vs %+v", out, in)
	}
}

func TestRefreshRecordDecodeRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {9}, {refreshRecordVersionV1, 1, 0}} {
		if _, err := decodeRefreshRecord(data); err == nil {
			t.Fatalf("decode(%v) should fail", data)
		}
	}
}

func TestRefreshRevokeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewRefreshStore(newMemStore(), "")

	record := &RefreshRecord{UserID: "u1", IssuedAt: 100}
	if err := s.Save(ctx, "tok-1", record, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Revoke(ctx, "tok-1", 200)
	if err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if got.UserID != "u1" || got.RevokedAt != 0 {
		t.Fatalf("revoke should return the pre-revocation record: %+v", got)
	}

	if _, err := s.Revoke(ctx, "tok-1", 300); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected ErrRefreshRevoked, got %v", err)
	}
	if _, err := s.Revoke(ctx, "missing", 300); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("missing record: expected ErrRefreshRevoked, got %v", err)
	}
}

func TestRefreshSaveRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewRefreshStore(newMemStore(), "")

	if err := s.Save(ctx, "tok-1", &RefreshRecord{UserID: "u1"}, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, "tok-1", &RefreshRecord{UserID: "u2"}, time.Hour); !errors.Is(err, ErrRefreshExists) {
		t.Fatalf("expected ErrRefreshExists, got %v", err)
	}
}

func TestNonceConsumeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewNonceStore(newMemStore(), "")

	if err := s.Consume(ctx, "n1", time.Hour); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if err := s.Consume(ctx, "n1", time.Hour); !errors.Is(err, ErrNonceUsed) {
		t.Fatalf("expected ErrNonceUsed, got %v", err)
	}
	if err := s.Consume(ctx, "n2", time.Hour); err != nil {
		t.Fatalf("distinct nonce failed: %v", err)
	}
}

func TestScanCounterIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewScanCounterStore(newMemStore(), "")

	for want := 1; want <= 3; want++ {
		got, err := s.Increment(ctx, "issuance-1", 3, time.Hour)
		if err != nil {
			t.Fatalf("increment %d failed: %v", want, err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}

	if _, err := s.Increment(ctx, "issuance-1", 3, time.Hour); !errors.Is(err, ErrScanLimitReached) {
		t.Fatalf("expected ErrScanLimitReached, got %v", err)
	}

	// separate issuances never contend
	if got, err := s.Increment(ctx, "issuance-2", 3, time.Hour); err != nil || got != 1 {
		t.Fatalf("fresh issuance: got=%d err=%v", got, err)
	}
}

func TestScanCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewScanCounterStore(newMemStore(), "")

	const limit = 4
	const n = 8

	var wg sync.WaitGroup
	wg.Add(n)
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Increment(ctx, "issuance-1", limit, time.Hour)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	exceeded := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrScanLimitReached):
			exceeded++
		default:
			t.Fatalf("unexpected increment error: %v", err)
		}
	}
	if success != limit {
		t.Fatalf("successes = %d, want %d", success, limit)
	}
	if exceeded != n-limit {
		t.Fatalf("limit rejections = %d, want %d", exceeded, n-limit)
	}
}
