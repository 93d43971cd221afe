// Package stores provides the typed, store-backed state the engine needs to
// enforce single-use and capped-use guarantees: refresh revocation records,
// consumed purpose-token nonces, and attendance scan counters.
//
// # Design
//
// Every store is a thin layer over the engine's key-value abstraction
// [store.Store]. Refresh records are versioned binary blobs keyed by a hash
// of the token ID; nonces and counters are bare keys. Each mutation that must
// pick exactly one winner (Revoke, Consume, Increment) reduces to a single
// put-if-absent or compare-and-swap so the backing store's per-key atomicity
// carries the guarantee.
//
// # What this package must NOT do
//
//   - Import the root package or the claims codec (no upward imports).
//   - Verify signatures or interpret token strings.
//   - Treat a store error as "not consumed": errors always propagate.
package stores
