package crypto

import (
	"encoding/base64"
	"fmt"
	"io"

	"sigil/internal/domain"
	"sigil/internal/util/memzero"
)

// NewSessionKey returns a fresh random 256-bit session key.
func NewSessionKey(random io.Reader) (domain.SessionKey, error) {
	var key domain.SessionKey
	b, err := RandomBytes(random, SessionKeySize)
	if err != nil {
		return key, err
	}
	copy(key[:], b)
	memzero.Zero(b)
	return key, nil
}

// MarshalSessionKey returns the portable form of key: standard base64 of the
// raw 32 bytes.
func MarshalSessionKey(key domain.SessionKey) string {
	return base64.StdEncoding.EncodeToString(key.Slice())
}

// ParseSessionKey is the inverse of MarshalSessionKey.
func ParseSessionKey(s string) (domain.SessionKey, error) {
	var key domain.SessionKey
	b, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return key, domain.E(domain.ErrInvalidKey, "parse session key", err)
	}
	defer memzero.Zero(b)
	if len(b) != SessionKeySize {
		return key, domain.E(domain.ErrInvalidKey, "parse session key",
			fmt.Errorf("got %d bytes, want %d", len(b), SessionKeySize))
	}
	copy(key[:], b)
	return key, nil
}

// WipeSessionKey zeroes key in place.
func WipeSessionKey(key *domain.SessionKey) {
	if key != nil {
		memzero.Zero(key[:])
	}
}
