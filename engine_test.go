package tokenengine

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testConfig(clock *testClock) Config {
	cfg := defaultConfig()
	cfg.Signing.Issuer = "campushub"
	cfg.Signing.Audience = "campushub-web"
	cfg.Signing.Leeway = 0
	cfg.Signing.TimeFunc = clock.Now
	cfg.Session.Key = []byte("session-secret-0123456789abcdef")
	cfg.Purpose.Key = []byte("purpose-secret-0123456789abcdef")
	cfg.Attendance.Key = []byte("attend-secret-0123456789abcdef0")
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *testClock) {
	t.Helper()

	_, rdb := newTestRedis(t)
	clock := newTestClock()
	cfg := testConfig(clock)
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(engine.Close)
	return engine, clock
}

func testUser() SessionUser {
	return SessionUser{
		UserID:       "u1",
		Role:         "club_admin",
		DisplayName:  "Alice Chen",
		SessionEpoch: 2,
	}
}
