package claims

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Intent is the closed set of purposes a signed token may serve. Every
// verifier pins one Intent; a token minted for one purpose can never pass
// verification for another.
type Intent string

const (
	// IntentAccess marks short-lived session access tokens.
	IntentAccess Intent = "access"
	// IntentRefresh marks rotating session refresh tokens.
	IntentRefresh Intent = "refresh"
	// IntentEmailVerify marks single-use email verification tokens.
	IntentEmailVerify Intent = "email_verify"
	// IntentPasswordReset marks single-use password reset tokens.
	IntentPasswordReset Intent = "password_reset"
	// IntentAttendance marks event-scoped attendance QR tokens.
	IntentAttendance Intent = "attendance"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentAccess, IntentRefresh, IntentEmailVerify, IntentPasswordReset, IntentAttendance:
		return true
	}
	return false
}

// Verification failure classes. Verify always returns one of these wrapped
// around the underlying parser error, so callers can switch on errors.Is
// without inspecting jwt internals.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrNotYetValid      = errors.New("token not yet valid")
	ErrInvalidAudience  = errors.New("token issuer or audience mismatch")
	ErrWrongIntent      = errors.New("token intent mismatch")
	ErrMalformed        = errors.New("malformed token")
)

// SigningMethod selects the MAC or signature algorithm for a Codec.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC-SHA256 shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key and verifies with the
	// corresponding public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config describes one Codec. Each token purpose owns its own Codec so
// secrets can differ per purpose and be swapped independently in tests.
type Config struct {
	Method    SigningMethod
	Key       []byte // HMAC secret, or Ed25519 private key (raw or PEM)
	PublicKey []byte // Ed25519 public key (raw or PEM); unused for HS256
	Issuer    string
	Audience  string
	// Leeway is the clock-skew allowance applied to exp/nbf/iat checks.
	// Must lie in [0, 2m].
	Leeway time.Duration
	// TimeFunc supplies "now" for verification. Defaults to time.Now.
	TimeFunc func() time.Time
}

// Codec signs and verifies Claims. It is pure: no I/O, no shared mutable
// state, safe for concurrent use.
type Codec struct {
	cfg Config
}

// Claims is the signed payload shared by every token the engine mints. Only
// the fields relevant to a given intent are populated; the rest stay empty
// and are omitted from the wire form.
type Claims struct {
	Intent       Intent `json:"int"`
	Nonce        string `json:"nce,omitempty"`
	Role         string `json:"rol,omitempty"`
	DisplayName  string `json:"dsp,omitempty"`
	SessionEpoch uint32 `json:"sep,omitempty"`
	Email        string `json:"eml,omitempty"`
	EventID      string `json:"evt,omitempty"`
	ScanLimit    int    `json:"scl,omitempty"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.TimeFunc == nil {
		cfg.TimeFunc = time.Now
	}
	switch cfg.Method {
	case MethodHS256:
		if len(cfg.Key) == 0 {
			return nil, errors.New("hs256 requires a signing key")
		}
	case MethodEd25519:
		if len(cfg.Key) > 0 {
			if _, err := parseEdPrivateKey(cfg.Key); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires a public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Method)
	}
	return &Codec{cfg: cfg}, nil
}

// Now returns the codec's notion of the current time.
func (c *Codec) Now() time.Time {
	return c.cfg.TimeFunc()
}

// Sign serializes cl to a compact URL-safe token string. The claims must
// carry a valid intent and a validity window with expiry strictly after
// issuance.
func (c *Codec) Sign(cl Claims) (string, error) {
	if !cl.Intent.Valid() {
		return "", fmt.Errorf("%w: unknown intent %q", ErrWrongIntent, cl.Intent)
	}
	if cl.ExpiresAt == nil || cl.IssuedAt == nil {
		return "", errors.New("claims require iat and exp")
	}
	if !cl.ExpiresAt.Time.After(cl.IssuedAt.Time) {
		return "", errors.New("claims expiry must be after issuance")
	}
	if c.cfg.Issuer != "" && cl.Issuer == "" {
		cl.Issuer = c.cfg.Issuer
	}
	if c.cfg.Audience != "" && len(cl.Audience) == 0 {
		cl.Audience = jwt.ClaimStrings{c.cfg.Audience}
	}

	token := jwt.NewWithClaims(c.method(), cl)
	key, err := c.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(key)
}

// Verify parses tokenStr, checks the signature in constant time, enforces
// expiry, not-before, issued-at, issuer and audience, and finally requires
// the embedded intent to equal expect. It returns the validated claims or
// one of the classified sentinel errors.
func (c *Codec) Verify(tokenStr string, expect Intent) (*Claims, error) {
	if !expect.Valid() {
		return nil, fmt.Errorf("%w: unknown expected intent %q", ErrWrongIntent, expect)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.cfg.TimeFunc),
	}
	if c.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.cfg.Leeway))
	}
	if c.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.cfg.Issuer))
	}
	if c.cfg.Audience != "" {
		options = append(options, jwt.WithAudience(c.cfg.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.verifyKey()
	})
	if err != nil {
		return nil, classify(err)
	}

	cl, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrMalformed)
	}
	if cl.IssuedAt == nil || cl.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing validity window", ErrMalformed)
	}
	if cl.Intent != expect {
		return nil, fmt.Errorf("%w: token carries %q, verifier expects %q", ErrWrongIntent, cl.Intent, expect)
	}
	return cl, nil
}

// classify maps golang-jwt parse failures onto the codec's sentinel errors.
// The order matters: jwt joins validation errors, and a tampered token can
// report both a signature and a claims failure. Signature integrity wins.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.cfg.Method {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.cfg.Method {
	case MethodHS256:
		return c.cfg.Key, nil
	default:
		return parseEdPrivateKey(c.cfg.Key)
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.cfg.Method {
	case MethodHS256:
		return c.cfg.Key, nil
	default:
		return parseEdPublicKey(c.cfg.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
