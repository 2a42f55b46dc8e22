package identity_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/crypto"
	"sigil/internal/domain"
	"sigil/internal/services/identity"
	"sigil/internal/store"
)

const pass = "Sup3r-Secret-Pass"

func newService(t *testing.T, opts ...identity.Option) (*identity.Service, *store.IdentityFileStore) {
	t.Helper()
	st := store.NewIdentityFileStore(t.TempDir(), store.WithScryptCost(1<<10))
	return identity.New(st, opts...), st
}

func TestGenerateIdentity(t *testing.T) {
	svc, st := newService(t)

	id, fp, err := svc.GenerateIdentity(pass, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", id.DisplayName)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, crypto.Fingerprint(id.VerifyKey.Public), fp)
	assert.Equal(t, fp, id.Fingerprint)
	assert.Equal(t, domain.UsageSign, id.SigningKey.Usage)
	assert.Equal(t, domain.UsageVerify, id.VerifyKey.Usage)

	loaded, err := st.LoadIdentity(pass)
	require.NoError(t, err)
	assert.Equal(t, id.ID, loaded.ID)

	got, err := svc.FingerprintIdentity(pass)
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	_, _, err = svc.GenerateIdentity(pass, "Alice again")
	assert.ErrorIs(t, err, identity.ErrIdentityExists)
}

func TestGenerateIdentity_Validation(t *testing.T) {
	svc, st := newService(t)

	for _, weak := range []string{"", "short1!A", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(weak, "Alice")
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, "passphrase %q", weak)
	}
	for _, name := range []string{"", "   ", strings.Repeat("n", 65)} {
		_, _, err := svc.GenerateIdentity(pass, name)
		assert.ErrorIs(t, err, identity.ErrInvalidDisplayName)
	}

	has, err := st.HasIdentity()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGenerateIdentity_KeyGenerationFailurePersistsNothing(t *testing.T) {
	svc, st := newService(t, identity.WithKeyBits(1024))

	_, _, err := svc.GenerateIdentity(pass, "Alice")
	assert.ErrorIs(t, err, domain.ErrKeyGeneration)

	has, err := st.HasIdentity()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestExportAndPeerJSON(t *testing.T) {
	svc, _ := newService(t)
	id, _, err := svc.GenerateIdentity(pass, "Alice")
	require.NoError(t, err)

	peer, err := svc.ExportIdentity(pass)
	require.NoError(t, err)
	assert.Equal(t, id.ID, peer.ID)
	assert.Equal(t, id.DisplayName, peer.DisplayName)
	assert.Equal(t, id.Fingerprint, peer.Fingerprint)
	assert.Equal(t, domain.UsageVerify, peer.SigningPublicKey.Usage)
	assert.Nil(t, peer.SigningPublicKey.Private)
	assert.True(t, id.VerifyKey.Public.Equal(peer.SigningPublicKey.Public))

	exported := identity.ExportPublic(id)
	assert.Equal(t, id.Fingerprint, exported.Fingerprint)
	assert.Nil(t, exported.SigningPublicKey.Private)

	b, err := identity.MarshalPeer(peer)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"d":`)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, string(id.ID), fields["userId"])
	assert.Equal(t, "Alice", fields["username"])
	assert.Equal(t, string(id.Fingerprint), fields["publicKeyFingerprint"])

	back, err := identity.ParsePeer(b)
	require.NoError(t, err)
	assert.Equal(t, peer.ID, back.ID)
	assert.Equal(t, peer.Fingerprint, back.Fingerprint)
	assert.True(t, peer.SigningPublicKey.Public.Equal(back.SigningPublicKey.Public))
	require.NoError(t, identity.CheckPeer(back))
}

func TestParsePeer_Rejects(t *testing.T) {
	svc, st := newService(t)
	_, _, err := svc.GenerateIdentity(pass, "Alice")
	require.NoError(t, err)
	peer, err := svc.ExportIdentity(pass)
	require.NoError(t, err)
	good, err := identity.MarshalPeer(peer)
	require.NoError(t, err)

	mutate := func(f func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(good, &m))
		f(m)
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return b
	}

	loaded, err := st.LoadIdentity(pass)
	require.NoError(t, err)
	priv, err := crypto.MarshalPrivateJWK(loaded.SigningKey)
	require.NoError(t, err)

	tests := map[string][]byte{
		"wrong fingerprint": mutate(func(m map[string]any) { m["publicKeyFingerprint"] = "0000000000000000" }),
		"lowercase fingerprint": mutate(func(m map[string]any) {
			m["publicKeyFingerprint"] = strings.ToLower(m["publicKeyFingerprint"].(string))
		}),
		"missing userId":    mutate(func(m map[string]any) { delete(m, "userId") }),
		"empty username":    mutate(func(m map[string]any) { m["username"] = "" }),
		"missing key":       mutate(func(m map[string]any) { delete(m, "publicKey") }),
		"unknown member":    mutate(func(m map[string]any) { m["avatar"] = "x" }),
		"unknown jwk field": mutate(func(m map[string]any) { m["publicKey"].(map[string]any)["use"] = "sig" }),
		"private key":       mutate(func(m map[string]any) { m["publicKey"] = priv }),
		"trailing data":     append(append([]byte{}, good...), []byte(`[]`)...),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := identity.ParsePeer(in)
			assert.ErrorIs(t, err, domain.ErrMalformedIdentity)
		})
	}
}

func TestDeleteIdentity(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.GenerateIdentity(pass, "Alice")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIdentity())
	_, err = svc.LoadIdentity(pass)
	assert.ErrorIs(t, err, domain.ErrNoIdentity)

	// A fresh identity may be created after deletion.
	_, _, err = svc.GenerateIdentity(pass, "Alice")
	require.NoError(t, err)
}
