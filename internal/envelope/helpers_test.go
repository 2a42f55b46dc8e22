package envelope_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

var (
	castOnce sync.Once
	cast     map[string]domain.Identity
	castErr  error
)

// participants returns Alice, Bob and Carol, generated once per test binary.
func participants(t *testing.T) (alice, bob, carol domain.Identity) {
	t.Helper()
	castOnce.Do(func() {
		cast = make(map[string]domain.Identity)
		for _, name := range []string{"alice", "bob", "carol"} {
			sign, verify, err := crypto.GenerateSigningKeyPair(nil, crypto.DefaultKeyBits)
			if err != nil {
				castErr = err
				return
			}
			cast[name] = domain.Identity{
				ID:          domain.UserID(name),
				DisplayName: name,
				SigningKey:  sign,
				VerifyKey:   verify,
				Fingerprint: crypto.Fingerprint(verify.Public),
			}
		}
	})
	require.NoError(t, castErr)
	return cast["alice"], cast["bob"], cast["carol"]
}

func sessionKey(t *testing.T) domain.SessionKey {
	t.Helper()
	k, err := crypto.NewSessionKey(nil)
	require.NoError(t, err)
	return k
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
