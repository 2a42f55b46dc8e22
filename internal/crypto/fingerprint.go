package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"sigil/internal/domain"
)

// FingerprintLength is the number of hex characters kept for display.
const FingerprintLength = 16

// Fingerprint returns the uppercase, truncated SHA-256 hex digest of the
// canonical JWK serialization of pub.
//
// The canonical form is the public JWK as produced by MarshalPublicJWK with
// keys in lexical order and no whitespace, so the result depends only on the
// key itself, not on how a peer happened to format it.
func Fingerprint(pub *rsa.PublicKey) domain.Fingerprint {
	sum := sha256.Sum256(canonicalPublicJSON(pub))
	return domain.Fingerprint(strings.ToUpper(hex.EncodeToString(sum[:])[:FingerprintLength]))
}

// KeyFingerprint is Fingerprint for either half of a SigningKey.
func KeyFingerprint(key domain.SigningKey) domain.Fingerprint {
	return Fingerprint(key.Public)
}

// canonicalJWK lists fields in lexical order; encoding/json keeps struct order.
type canonicalJWK struct {
	Alg    string   `json:"alg"`
	E      string   `json:"e"`
	Ext    bool     `json:"ext"`
	KeyOps []string `json:"key_ops"`
	Kty    string   `json:"kty"`
	N      string   `json:"n"`
}

func canonicalPublicJSON(pub *rsa.PublicKey) []byte {
	jwk := publicJWK(pub)
	// Marshalling strings, a bool and a string slice cannot fail.
	b, _ := json.Marshal(canonicalJWK{
		Alg:    jwk.Alg,
		E:      jwk.E,
		Ext:    true,
		KeyOps: jwk.KeyOps,
		Kty:    jwk.Kty,
		N:      jwk.N,
	})
	return b
}
