package tokenengine

import (
	"time"
)

// Config configures the engine. Sections are independent: each token purpose
// owns its signing key and TTLs so secrets can differ per purpose and be
// swapped in tests without touching the others.
//
// Config instances are treated as immutable after [Builder.Build].
type Config struct {
	Signing    SigningConfig
	Session    SessionConfig
	Purpose    PurposeConfig
	Attendance AttendanceConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SIGNING CONFIG
====================================
*/

// SigningConfig carries the policy shared by every codec the engine builds:
// algorithm, token addressing, and clock handling.
type SigningConfig struct {
	Method   string // "hs256" (default) or "ed25519"
	Issuer   string
	Audience string
	// Leeway is the clock-skew allowance for expiry and not-before checks.
	// Must lie in [0, 2m]. Default 30s.
	Leeway time.Duration
	// TimeFunc supplies "now" for issuance and verification. Defaults to
	// time.Now; override only in tests.
	TimeFunc func() time.Time
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig governs access/refresh pairs.
type SessionConfig struct {
	Key       []byte // HMAC secret or Ed25519 private key
	PublicKey []byte // Ed25519 public key; unused for hs256
	// AccessTTL bounds access tokens. Default 15m.
	AccessTTL time.Duration
	// RefreshTTL bounds refresh tokens. Default 7 days.
	RefreshTTL time.Duration
	// RememberMeRefreshTTL replaces RefreshTTL when a session is issued with
	// rememberMe. Default 30 days.
	RememberMeRefreshTTL time.Duration
	// StorePrefix namespaces refresh records. Default "rr".
	StorePrefix string
}

/*
====================================
PURPOSE CONFIG
====================================
*/

// PurposeConfig governs single-use email verification and password reset
// tokens.
type PurposeConfig struct {
	Key       []byte
	PublicKey []byte
	// EmailVerifyTTL bounds verification tokens. Default 24h.
	EmailVerifyTTL time.Duration
	// PasswordResetTTL bounds reset tokens. Default 1h.
	PasswordResetTTL time.Duration
	// StorePrefix namespaces consumed nonces. Default "pn".
	StorePrefix string
}

/*
====================================
ATTENDANCE CONFIG
====================================
*/

// AttendanceConfig governs event attendance QR tokens.
type AttendanceConfig struct {
	Key       []byte
	PublicKey []byte
	// MaxWindow caps the validity window of one token. Default 7 days.
	MaxWindow time.Duration
	// StorePrefix namespaces scan counters. Default "sc".
	StorePrefix string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig governs the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking callers when the buffer is
	// full; dropped counts are observable via [Engine.AuditDropped].
	DropIfFull bool
}

// MetricsConfig enables in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Signing: SigningConfig{
			Method: "hs256",
			Leeway: 30 * time.Second,
		},
		Session: SessionConfig{
			AccessTTL:            15 * time.Minute,
			RefreshTTL:           7 * 24 * time.Hour,
			RememberMeRefreshTTL: 30 * 24 * time.Hour,
		},
		Purpose: PurposeConfig{
			EmailVerifyTTL:   24 * time.Hour,
			PasswordResetTTL: time.Hour,
		},
		Attendance: AttendanceConfig{
			MaxWindow: 7 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.Key = append([]byte(nil), cfg.Session.Key...)
	out.Session.PublicKey = append([]byte(nil), cfg.Session.PublicKey...)
	out.Purpose.Key = append([]byte(nil), cfg.Purpose.Key...)
	out.Purpose.PublicKey = append([]byte(nil), cfg.Purpose.PublicKey...)
	out.Attendance.Key = append([]byte(nil), cfg.Attendance.Key...)
	out.Attendance.PublicKey = append([]byte(nil), cfg.Attendance.PublicKey...)
	return out
}
