// Package claims signs and verifies the typed claims structure every token
// the engine mints is built from.
//
// # Design
//
// One [Codec] per token purpose, each owning its signing key and validation
// policy (issuer, audience, clock-skew leeway). Verification is pure: no
// store access, no side effects, so the same Codec can back stateless
// hot-path checks and property tests alike. Signature comparison is
// constant-time inside golang-jwt.
//
// # Architecture boundaries
//
// This package owns serialization, signature math, and claim validation. It
// does NOT track revocation, consumption, or scan counts; a cryptographically
// valid token may still be refused by the engine's store-backed checks.
package claims
