package crypto_test

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

type keyPair struct{ sign, verify domain.SigningKey }

var (
	keysOnce sync.Once
	keys     [2]keyPair
	keysErr  error
)

// testKeys generates two key pairs once per test binary.
func testKeys(t *testing.T) (a, b keyPair) {
	t.Helper()
	keysOnce.Do(func() {
		for i := range keys {
			s, v, err := crypto.GenerateSigningKeyPair(nil, crypto.DefaultKeyBits)
			if err != nil {
				keysErr = err
				return
			}
			keys[i] = keyPair{sign: s, verify: v}
		}
	})
	require.NoError(t, keysErr)
	return keys[0], keys[1]
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateSigningKeyPair_Usages(t *testing.T) {
	a, _ := testKeys(t)
	assert.Equal(t, domain.UsageSign, a.sign.Usage)
	assert.NotNil(t, a.sign.Private)
	assert.Equal(t, domain.UsageVerify, a.verify.Usage)
	assert.Nil(t, a.verify.Private)
	assert.Equal(t, crypto.DefaultKeyBits, a.verify.Public.N.BitLen())
}

func TestGenerateSigningKeyPair_RejectsWeakSizes(t *testing.T) {
	for _, bits := range []int{0, 1024, 2047, crypto.MaxKeyBits + 1} {
		_, _, err := crypto.GenerateSigningKeyPair(nil, bits)
		assert.ErrorIs(t, err, domain.ErrKeyGeneration, "bits=%d", bits)
	}
}

func TestSignVerify(t *testing.T) {
	a, b := testKeys(t)
	msg := []byte("ciphertext bytes")

	sig, err := crypto.Sign(nil, a.sign, msg)
	require.NoError(t, err)
	assert.Len(t, sig, crypto.DefaultKeyBits/8)
	require.NoError(t, crypto.Verify(a.verify, msg, sig))

	// PSS is salted.
	sig2, err := crypto.Sign(nil, a.sign, msg)
	require.NoError(t, err)
	assert.NotEqual(t, sig, sig2)

	assert.ErrorIs(t, crypto.Verify(b.verify, msg, sig), domain.ErrSignatureVerification)
	assert.ErrorIs(t, crypto.Verify(a.verify, []byte("other"), sig), domain.ErrSignatureVerification)

	sig[10] ^= 0x80
	assert.ErrorIs(t, crypto.Verify(a.verify, msg, sig), domain.ErrSignatureVerification)
}

func TestKeyUsageEnforced(t *testing.T) {
	a, _ := testKeys(t)
	_, err := crypto.Sign(nil, a.verify, []byte("x"))
	assert.ErrorIs(t, err, domain.ErrKeyUsage)

	sig, err := crypto.Sign(nil, a.sign, []byte("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, crypto.Verify(a.sign, []byte("x"), sig), domain.ErrKeyUsage)
}

func TestJWK_RoundTrip(t *testing.T) {
	a, _ := testKeys(t)

	pub, err := crypto.MarshalPublicJWK(a.verify)
	require.NoError(t, err)
	assert.False(t, pub.IsPrivate())
	assert.Equal(t, []string{"verify"}, pub.KeyOps)

	raw, err := json.Marshal(pub)
	require.NoError(t, err)
	verify, err := crypto.ParseJWK(raw, domain.UsageVerify)
	require.NoError(t, err)
	assert.True(t, a.verify.Public.Equal(verify.Public))

	priv, err := crypto.MarshalPrivateJWK(a.sign)
	require.NoError(t, err)
	assert.True(t, priv.IsPrivate())
	raw, err = json.Marshal(priv)
	require.NoError(t, err)
	sign, err := crypto.ParseJWK(raw, domain.UsageSign)
	require.NoError(t, err)
	assert.True(t, a.sign.Private.Equal(sign.Private))

	// A key restored from JWK interoperates with the original.
	sig, err := crypto.Sign(nil, sign, []byte("m"))
	require.NoError(t, err)
	require.NoError(t, crypto.Verify(a.verify, []byte("m"), sig))
}

func TestJWK_UsageMismatch(t *testing.T) {
	a, _ := testKeys(t)

	pub, err := crypto.MarshalPublicJWK(a.verify)
	require.NoError(t, err)
	_, err = crypto.KeyFromJWK(pub, domain.UsageSign)
	assert.ErrorIs(t, err, domain.ErrKeyUsage)

	priv, err := crypto.MarshalPrivateJWK(a.sign)
	require.NoError(t, err)
	_, err = crypto.KeyFromJWK(priv, domain.UsageVerify)
	assert.ErrorIs(t, err, domain.ErrKeyUsage, "sign-only key_ops must not import as verify")

	_, err = crypto.MarshalPrivateJWK(a.verify)
	assert.ErrorIs(t, err, domain.ErrKeyUsage)
}

func TestParseJWK_Invalid(t *testing.T) {
	a, _ := testKeys(t)
	pub, err := crypto.MarshalPublicJWK(a.verify)
	require.NoError(t, err)
	good, err := json.Marshal(pub)
	require.NoError(t, err)

	tests := map[string]string{
		"not json":      `{`,
		"unknown field": strings.Replace(string(good), `{`, `{"use":"sig",`, 1),
		"wrong kty":     strings.Replace(string(good), `"kty":"RSA"`, `"kty":"EC"`, 1),
		"wrong alg":     strings.Replace(string(good), `"alg":"PS256"`, `"alg":"RS256"`, 1),
		"trailing":      string(good) + `{}`,
		"bad modulus":   `{"kty":"RSA","n":"AQAB","e":"AQAB"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := crypto.ParseJWK([]byte(in), domain.UsageVerify)
			assert.ErrorIs(t, err, domain.ErrInvalidKey)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, b := testKeys(t)

	fa := crypto.Fingerprint(a.verify.Public)
	assert.Len(t, fa.String(), crypto.FingerprintLength)
	assert.Equal(t, strings.ToUpper(fa.String()), fa.String())
	assert.Equal(t, fa, crypto.Fingerprint(a.verify.Public), "deterministic")
	assert.Equal(t, fa, crypto.KeyFingerprint(a.sign), "same for either half")
	assert.NotEqual(t, fa, crypto.Fingerprint(b.verify.Public))

	// Survives a JWK round trip.
	pub, err := crypto.MarshalPublicJWK(a.verify)
	require.NoError(t, err)
	back, err := crypto.KeyFromJWK(pub, domain.UsageVerify)
	require.NoError(t, err)
	assert.Equal(t, fa, crypto.Fingerprint(back.Public))
}

func TestAEAD(t *testing.T) {
	key, err := crypto.NewSessionKey(nil)
	require.NoError(t, err)
	other, err := crypto.NewSessionKey(nil)
	require.NoError(t, err)
	nonce, err := crypto.RandomBytes(nil, crypto.NonceSize)
	require.NoError(t, err)

	ct, err := crypto.Encrypt(key, nonce, []byte("hello"))
	require.NoError(t, err)
	assert.Len(t, ct, len("hello")+crypto.TagSize)

	pt, err := crypto.Decrypt(key, nonce, ct)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	_, err = crypto.Decrypt(other, nonce, ct)
	assert.ErrorIs(t, err, domain.ErrDecryption)

	ct[0] ^= 1
	_, err = crypto.Decrypt(key, nonce, ct)
	assert.ErrorIs(t, err, domain.ErrDecryption)

	_, err = crypto.Encrypt(key, nonce[:8], []byte("x"))
	assert.ErrorIs(t, err, domain.ErrMalformedEnvelope)

	empty, err := crypto.Encrypt(key, nonce, nil)
	require.NoError(t, err)
	pt, err = crypto.Decrypt(key, nonce, empty)
	require.NoError(t, err)
	assert.NotNil(t, pt)
	assert.Empty(t, pt)
}

func TestSessionKey(t *testing.T) {
	k1, err := crypto.NewSessionKey(nil)
	require.NoError(t, err)
	k2, err := crypto.NewSessionKey(nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
	assert.False(t, k1.IsZero())

	s := crypto.MarshalSessionKey(k1)
	back, err := crypto.ParseSessionKey(s)
	require.NoError(t, err)
	assert.Equal(t, k1, back)

	for _, bad := range []string{"", "not base64!", "AAAA", s[:len(s)-4]} {
		_, err := crypto.ParseSessionKey(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidKey, "input %q", bad)
	}

	crypto.WipeSessionKey(&k1)
	assert.True(t, k1.IsZero())

	_, err = crypto.NewSessionKey(failingReader{})
	assert.ErrorIs(t, err, domain.ErrRandomnessUnavailable)
}

func TestRandomBytes(t *testing.T) {
	b, err := crypto.RandomBytes(nil, 32)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	_, err = crypto.RandomBytes(strings.NewReader("short"), 32)
	assert.ErrorIs(t, err, domain.ErrRandomnessUnavailable)
}
