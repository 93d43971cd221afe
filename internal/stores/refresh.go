package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/campushub/tokenengine/store"
)

const refreshRecordVersionV1 = 1

var (
	ErrRefreshExists  = errors.New("refresh record already exists")
	ErrRefreshRevoked = errors.New("refresh record revoked or missing")
)

// RefreshRecord is the persisted twin of one issued refresh token. A refresh
// token is honored only while its record exists with RevokedAt == 0; the
// cryptographic check alone cannot express "this token already rotated".
//
// The record also carries the identity fields a rotation needs to mint the
// next access token, so rotation never requires a user lookup.
type RefreshRecord struct {
	UserID       string
	Role         string
	DisplayName  string
	SessionEpoch uint32
	Remember     bool
	IssuedAt     int64
	RevokedAt    int64
}

// RefreshStore persists refresh records keyed by a hash of the token ID. The
// plaintext token ID never reaches the store.
type RefreshStore struct {
	kv     store.Store
	prefix string
}

// NewRefreshStore wraps kv. An empty prefix defaults to "rr".
func NewRefreshStore(kv store.Store, prefix string) *RefreshStore {
	if prefix == "" {
		prefix = "rr"
	}
	return &RefreshStore{kv: kv, prefix: prefix}
}

func (s *RefreshStore) key(tokenID string) string {
	sum := sha256.Sum256([]byte(tokenID))
	return s.prefix + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Save creates the record for a freshly issued token. Token IDs are random
// UUIDs, so an existing key means issuance reused an ID and must abort.
func (s *RefreshStore) Save(ctx context.Context, tokenID string, record *RefreshRecord, ttl time.Duration) error {
	encoded, err := encodeRefreshRecord(record)
	if err != nil {
		return err
	}
	ok, err := s.kv.PutIfAbsent(ctx, s.key(tokenID), encoded, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRefreshExists
	}
	return nil
}

// Revoke atomically flips the record from active to revoked and returns the
// record as it was before the flip. The check-not-revoked and mark-revoked
// steps form one compare-and-swap: of any number of concurrent calls for the
// same token, exactly one succeeds. A missing or already-revoked record
// returns ErrRefreshRevoked.
func (s *RefreshStore) Revoke(ctx context.Context, tokenID string, now int64) (*RefreshRecord, error) {
	key := s.key(tokenID)

	current, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrRefreshRevoked
	}
	if err != nil {
		return nil, err
	}

	record, err := decodeRefreshRecord(current)
	if err != nil {
		return nil, err
	}
	if record.RevokedAt != 0 {
		return nil, ErrRefreshRevoked
	}

	revoked := *record
	revoked.RevokedAt = now
	next, err := encodeRefreshRecord(&revoked)
	if err != nil {
		return nil, err
	}

	// ttl <= 0 keeps the key's remaining expiry: a revoked record must not
	// outlive the token it shadows.
	ok, err := s.kv.CompareAndSwap(ctx, key, current, next, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race to a concurrent rotation or logout
		return nil, ErrRefreshRevoked
	}
	return record, nil
}

func encodeRefreshRecord(record *RefreshRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(refreshRecordVersionV1)
	if record.Remember {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, record.SessionEpoch); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.RevokedAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.UserID, record.Role, record.DisplayName} {
		if len(field) > 65535 {
			return nil, errors.New("refresh record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeRefreshRecord(data []byte) (*RefreshRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != refreshRecordVersionV1 {
		return nil, errors.New("invalid refresh record version")
	}

	remember, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &RefreshRecord{
		Remember: remember == 1,
	}

	if err := binary.Read(reader, binary.BigEndian, &record.SessionEpoch); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.RevokedAt); err != nil {
		return nil, err
	}

	for _, target := range []*string{&record.UserID, &record.Role, &record.DisplayName} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		field := make([]byte, length)
		if _, err := io.ReadFull(reader, field); err != nil {
			return nil, err
		}
		*target = string(field)
	}

	return record, nil
}
