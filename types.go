package tokenengine

import "time"

// SessionUser is the identity snapshot a session is minted for. The engine
// never looks users up; callers resolve credentials first and hand the result
// here.
type SessionUser struct {
	UserID      string
	Role        string
	DisplayName string
	// SessionEpoch is the caller's session-generation counter. Bumping it
	// server-side lets callers reject access tokens minted before the bump
	// without the engine holding any per-user state.
	SessionEpoch uint32
}

// SessionTokenPair is returned by [Engine.IssueSession] and
// [Engine.RotateRefresh]. The access token is echoed to clients; the refresh
// token belongs in an HTTP-only cookie with max-age matching RefreshExpiresAt.
type SessionTokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessIdentity is the validated result of [Engine.VerifyAccess].
type AccessIdentity struct {
	UserID       string
	Role         string
	DisplayName  string
	SessionEpoch uint32
	ExpiresAt    time.Time
}

// ScanResult is the validated result of [Engine.ValidateScan]. ScansUsed and
// ScanLimit are zero for tokens issued without a scan ceiling.
type ScanResult struct {
	EventID   string
	IssuedAt  time.Time
	ScansUsed int
	ScanLimit int
}
