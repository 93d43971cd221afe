package tokenengine

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/internal/stores"
	"github.com/campushub/tokenengine/redisstore"
	"github.com/campushub/tokenengine/store"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens before the first Engine method call.
type Builder struct {
	config Config

	kv        store.Store
	redis     redis.UniversalClient
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's config wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the engine with the bundled Redis store implementation.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore backs the engine with a custom [store.Store]. Takes precedence
// over WithRedis.
func (b *Builder) WithStore(kv store.Store) *Builder {
	b.kv = kv
	return b
}

// WithAuditSink sets the sink receiving audit events when auditing is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuditEnabled toggles the audit dispatcher.
func (b *Builder) WithAuditEnabled(enabled bool) *Builder {
	b.config.Audit.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	kv := b.kv
	if kv == nil {
		if b.redis == nil {
			return nil, errors.New("a store is required: use WithRedis or WithStore")
		}
		kv = redisstore.New(b.redis, "")
	}

	cfg := b.config
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	method := claims.SigningMethod(cfg.Signing.Method)
	timeFunc := cfg.Signing.TimeFunc
	if timeFunc == nil {
		timeFunc = time.Now
	}

	newCodec := func(key, publicKey []byte) (*claims.Codec, error) {
		return claims.NewCodec(claims.Config{
			Method:    method,
			Key:       key,
			PublicKey: publicKey,
			Issuer:    cfg.Signing.Issuer,
			Audience:  cfg.Signing.Audience,
			Leeway:    cfg.Signing.Leeway,
			TimeFunc:  timeFunc,
		})
	}

	sessionCodec, err := newCodec(cfg.Session.Key, cfg.Session.PublicKey)
	if err != nil {
		return nil, errors.Join(errors.New("session codec"), err)
	}
	purposeCodec, err := newCodec(cfg.Purpose.Key, cfg.Purpose.PublicKey)
	if err != nil {
		return nil, errors.Join(errors.New("purpose codec"), err)
	}
	attendanceCodec, err := newCodec(cfg.Attendance.Key, cfg.Attendance.PublicKey)
	if err != nil {
		return nil, errors.Join(errors.New("attendance codec"), err)
	}

	b.built = true

	return &Engine{
		config:          cfg,
		sessionCodec:    sessionCodec,
		purposeCodec:    purposeCodec,
		attendanceCodec: attendanceCodec,
		refreshStore:    stores.NewRefreshStore(kv, cfg.Session.StorePrefix),
		nonceStore:      stores.NewNonceStore(kv, cfg.Purpose.StorePrefix),
		scanStore:       stores.NewScanCounterStore(kv, cfg.Attendance.StorePrefix),
		audit:           newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:         newMetrics(cfg.Metrics),
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Signing.Leeway < 0 || cfg.Signing.Leeway > 2*time.Minute {
		return errors.New("signing leeway must lie in [0, 2m]")
	}
	if cfg.Session.AccessTTL <= 0 {
		return errors.New("session access TTL must be positive")
	}
	if cfg.Session.RefreshTTL <= 0 || cfg.Session.RememberMeRefreshTTL <= 0 {
		return errors.New("session refresh TTLs must be positive")
	}
	if cfg.Session.AccessTTL >= cfg.Session.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Purpose.EmailVerifyTTL <= 0 || cfg.Purpose.PasswordResetTTL <= 0 {
		return errors.New("purpose token TTLs must be positive")
	}
	if cfg.Attendance.MaxWindow <= 0 {
		return errors.New("attendance max window must be positive")
	}
	return nil
}
