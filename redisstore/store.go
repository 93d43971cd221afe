// Package redisstore implements the engine's [store.Store] contract on top of
// a Redis client.
//
// PutIfAbsent maps to SET NX. CompareAndSwap runs a WATCH/MULTI optimistic
// transaction with a bounded retry loop, the same discipline the engine's
// consume paths rely on for exactly-one-winner semantics. Any Redis transport
// failure surfaces as [store.ErrUnavailable]; callers must treat that as a
// failed operation, never as "key absent".
package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campushub/tokenengine/store"
)

const casMaxRetries = 4

// Store adapts a Redis client to the engine's key-value contract. All keys
// are namespaced under a configurable prefix so several engines can share one
// Redis database.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store over client. An empty prefix defaults to "tke".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "tke"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

// PutIfAbsent implements store.Store via SET NX.
func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.redis.SetNX(ctx, s.key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return ok, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return data, nil
}

// CompareAndSwap implements store.Store with a WATCH/MULTI transaction. A
// missing key or a current value different from expected reports false. When
// ttl <= 0 the key keeps its current expiry.
func (s *Store) CompareAndSwap(ctx context.Context, key string, expected, next []byte, ttl time.Duration) (bool, error) {
	fullKey := s.key(key)

	for i := 0; i < casMaxRetries; i++ {
		var swapped bool

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, fullKey).Bytes()
			if errors.Is(err, redis.Nil) {
				swapped = false
				return nil
			}
			if err != nil {
				return err
			}
			if !bytes.Equal(current, expected) {
				swapped = false
				return nil
			}

			expiry := ttl
			if expiry <= 0 {
				expiry = redis.KeepTTL
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, fullKey, next, expiry)
				return nil
			})
			if err != nil {
				return err
			}
			swapped = true
			return nil
		}, fullKey)

		if errors.Is(err, redis.TxFailedErr) {
			// another writer touched the key mid-transaction
			continue
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return swapped, nil
	}

	return false, fmt.Errorf("%w: compare-and-swap retries exhausted", store.ErrUnavailable)
}
