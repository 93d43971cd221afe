// Package store defines the key-value contract the token engine relies on for
// revocation and consumption state.
//
// The engine never talks to a database directly; every single-use or
// rate-capped guarantee (refresh rotation, nonce consumption, scan counting)
// reduces to one of the three operations below executed against an injected
// Store. Implementations must make PutIfAbsent and CompareAndSwap atomic per
// key; if the backing store cannot do that natively, the implementation must
// wrap the check-then-write in a lock keyed identically.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned by Get when no value exists under the key.
	ErrKeyNotFound = errors.New("store key not found")
	// ErrUnavailable wraps every transport or backend failure. A consume path
	// receiving ErrUnavailable must treat the operation as failed, never as
	// "not yet consumed": an ambiguous store response may hide a completed
	// write.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the atomic key-value abstraction consumed by the engine.
//
// All methods are safe for concurrent use. A ttl of zero or less means "no
// expiry" for PutIfAbsent and "preserve the key's current expiry" for
// CompareAndSwap.
type Store interface {
	// PutIfAbsent writes value under key only when the key does not exist.
	// It reports whether the write happened.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// CompareAndSwap replaces the value under key with next only when the
	// current value equals expected, in one indivisible step. It reports
	// whether the swap happened; a missing key counts as a mismatch.
	CompareAndSwap(ctx context.Context, key string, expected, next []byte, ttl time.Duration) (bool, error)

	// Get returns the value under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}
