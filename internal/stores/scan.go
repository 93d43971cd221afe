package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campushub/tokenengine/store"
)

const scanMaxRetries = 4

var ErrScanLimitReached = errors.New("scan counter at limit")

// ScanCounterStore counts validated scans per token issuance. Counters are
// keyed by the token's issuance identity, so two tokens for the same event
// never share a counter.
type ScanCounterStore struct {
	kv     store.Store
	prefix string
}

// NewScanCounterStore wraps kv. An empty prefix defaults to "sc".
func NewScanCounterStore(kv store.Store, prefix string) *ScanCounterStore {
	if prefix == "" {
		prefix = "sc"
	}
	return &ScanCounterStore{kv: kv, prefix: prefix}
}

// Increment bumps the counter for issuanceID unless doing so would exceed
// limit, and returns the new count. The first scan initializes the counter
// with put-if-absent; later scans read-then-compare-and-swap, retrying on
// contention. Two concurrent scans racing for one remaining slot resolve to
// exactly one success and one ErrScanLimitReached.
func (s *ScanCounterStore) Increment(ctx context.Context, issuanceID string, limit int, ttl time.Duration) (int, error) {
	if limit <= 0 {
		return 0, errors.New("scan counter requires a positive limit")
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	key := s.prefix + ":" + issuanceID

	for i := 0; i < scanMaxRetries; i++ {
		ok, err := s.kv.PutIfAbsent(ctx, key, []byte("1"), ttl)
		if err != nil {
			return 0, err
		}
		if ok {
			return 1, nil
		}

		current, err := s.kv.Get(ctx, key)
		if errors.Is(err, store.ErrKeyNotFound) {
			// counter expired between the putter and the read
			continue
		}
		if err != nil {
			return 0, err
		}

		count, err := strconv.Atoi(string(current))
		if err != nil {
			return 0, fmt.Errorf("corrupt scan counter: %v", err)
		}
		if count >= limit {
			return count, ErrScanLimitReached
		}

		next := []byte(strconv.Itoa(count + 1))
		swapped, err := s.kv.CompareAndSwap(ctx, key, current, next, 0)
		if err != nil {
			return 0, err
		}
		if swapped {
			return count + 1, nil
		}
		// lost to a concurrent scan; re-read and retry
	}

	return 0, fmt.Errorf("%w: scan counter contention", store.ErrUnavailable)
}
