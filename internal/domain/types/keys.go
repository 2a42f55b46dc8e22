package types

import "crypto/rsa"

// KeyUsage restricts what a SigningKey may be used for.
type KeyUsage string

const (
	// UsageSign marks a private key that may only produce signatures.
	UsageSign KeyUsage = "sign"
	// UsageVerify marks a public key that may only check signatures.
	UsageVerify KeyUsage = "verify"
)

// String returns the string form of the usage.
func (u KeyUsage) String() string { return string(u) }

// SigningKey is one half of an RSA-PSS identity key pair, bound to a single
// usage. Sign keys carry Private; verify keys carry only Public.
type SigningKey struct {
	Usage   KeyUsage
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// IsZero reports whether the key carries no material.
func (k SigningKey) IsZero() bool { return k.Private == nil && k.Public == nil }

// SessionKey is a 256-bit symmetric AEAD key shared by the two ends of a
// relationship.
type SessionKey [32]byte

// Slice returns the key as a []byte.
func (k SessionKey) Slice() []byte { return k[:] }

// IsZero reports whether every byte of the key is zero.
func (k SessionKey) IsZero() bool { return k == SessionKey{} }
