// Package tokenengine mints, transmits, and verifies every piece of bearer
// evidence a club/event platform trusts: session access+refresh pairs,
// single-use account-recovery and verification tokens, and event-scoped
// attendance QR tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tokenengine is the public surface. It exposes [Engine], [Builder], [Config],
// the sentinel error taxonomy, and value types ([SessionTokenPair],
// [AccessIdentity], [ScanResult]). Signature math lives in the claims
// subpackage; revocation and consumption state lives behind the injected
// [store.Store], with a ready Redis implementation in redisstore.
//
// # What this package must NOT do
//
//   - Reach a database for signing or verification math. [Engine.VerifyAccess]
//     and the codec paths are pure; only rotation, consumption, and scan
//     counting touch the store, each as a single atomic round-trip.
//   - Send email, render QR images, or speak HTTP. Those collaborators receive
//     issued token strings and hand presented ones back.
//   - Trust any claim before verification succeeds. Token strings are opaque
//     to callers.
package tokenengine
