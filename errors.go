package tokenengine

import (
	"errors"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/store"
)

// Verification failures surfaced by the engine. The codec-level classes are
// aliases of the claims package sentinels so errors.Is matches whichever
// layer a caller imported.
//
// None of these should reach an unauthenticated client verbatim; callers map
// them to generic user-facing messages and keep the specific class for
// server-side logs.
var (
	// ErrInvalidSignature marks a token whose MAC or signature does not match.
	ErrInvalidSignature = claims.ErrInvalidSignature
	// ErrExpired marks a token past its expiry.
	ErrExpired = claims.ErrExpired
	// ErrNotYetValid marks a token presented before its validity window opens.
	ErrNotYetValid = claims.ErrNotYetValid
	// ErrWrongIntent marks a token minted for a different purpose.
	ErrWrongIntent = claims.ErrWrongIntent
	// ErrInvalidAudience marks an issuer or audience mismatch.
	ErrInvalidAudience = claims.ErrInvalidAudience
	// ErrMalformedToken marks a string that does not parse as a token at all.
	ErrMalformedToken = claims.ErrMalformed
	// ErrStoreUnavailable marks a failed or ambiguous store round-trip. It is
	// the only transient class; callers may retry the whole operation.
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrRevoked marks a refresh token whose record is revoked or missing.
	ErrRevoked = errors.New("refresh token revoked")
	// ErrAlreadyUsed marks a single-use token whose nonce was consumed.
	ErrAlreadyUsed = errors.New("token already used")
	// ErrScanLimitExceeded marks an attendance scan past the token's ceiling.
	ErrScanLimitExceeded = errors.New("scan limit exceeded")
	// ErrWrongEvent marks an attendance token presented at a different event.
	ErrWrongEvent = errors.New("token bound to a different event")

	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
