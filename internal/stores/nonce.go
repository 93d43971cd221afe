package stores

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/tokenengine/store"
)

var ErrNonceUsed = errors.New("nonce already consumed")

// NonceStore tracks consumed single-use nonces. A nonce key lives only as
// long as the token that carries it could still verify, so the used set
// cleans itself up.
type NonceStore struct {
	kv     store.Store
	prefix string
}

// NewNonceStore wraps kv. An empty prefix defaults to "pn".
func NewNonceStore(kv store.Store, prefix string) *NonceStore {
	if prefix == "" {
		prefix = "pn"
	}
	return &NonceStore{kv: kv, prefix: prefix}
}

// Consume marks nonce as used for ttl. The mark is a single put-if-absent:
// of any number of concurrent calls for the same nonce, exactly one wins and
// the rest get ErrNonceUsed.
func (s *NonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) error {
	if ttl <= 0 {
		// token is at the edge of expiry; hold the mark briefly anyway
		ttl = time.Second
	}
	ok, err := s.kv.PutIfAbsent(ctx, s.prefix+":"+nonce, []byte{1}, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNonceUsed
	}
	return nil
}
