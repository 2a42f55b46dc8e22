package crypto

import (
	gocrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"sigil/internal/domain"
)

const (
	// MinKeyBits is the smallest accepted RSA modulus.
	MinKeyBits = 2048
	// DefaultKeyBits is the modulus size used for new identities.
	DefaultKeyBits = 2048
	// MaxKeyBits is the largest accepted RSA modulus.
	MaxKeyBits = 8192

	// MinSignatureSize and MaxSignatureSize bound an RSA signature in bytes.
	MinSignatureSize = MinKeyBits / 8
	MaxSignatureSize = MaxKeyBits / 8
)

// Salted PSS: signing the same ciphertext twice yields different signatures.
var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthEqualsHash,
	Hash:       gocrypto.SHA256,
}

// GenerateSigningKeyPair returns a fresh RSA-PSS key pair split into a
// sign-only private key and a verify-only public key.
func GenerateSigningKeyPair(random io.Reader, bits int) (signKey, verifyKey domain.SigningKey, err error) {
	const op = "generate signing key"
	if bits < MinKeyBits || bits > MaxKeyBits {
		err = domain.E(domain.ErrKeyGeneration, op,
			fmt.Errorf("key size %d outside [%d, %d]", bits, MinKeyBits, MaxKeyBits))
		return signKey, verifyKey, err
	}
	if random == nil {
		random = rand.Reader
	}
	priv, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return signKey, verifyKey, domain.E(domain.ErrKeyGeneration, op, err)
	}
	signKey = domain.SigningKey{Usage: domain.UsageSign, Private: priv, Public: &priv.PublicKey}
	verifyKey = domain.SigningKey{Usage: domain.UsageVerify, Public: &priv.PublicKey}
	return signKey, verifyKey, nil
}

// Sign produces a salted RSA-PSS signature over msg. The key must be a sign key.
func Sign(random io.Reader, key domain.SigningKey, msg []byte) ([]byte, error) {
	if err := requireUsage(key, domain.UsageSign); err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPSS(random, key.Private, gocrypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return nil, domain.E(domain.ErrSigning, "sign", err)
	}
	return sig, nil
}

// Verify checks an RSA-PSS signature over msg. The key must be a verify key.
func Verify(key domain.SigningKey, msg, sig []byte) error {
	if err := requireUsage(key, domain.UsageVerify); err != nil {
		return err
	}
	digest := sha256.Sum256(msg)
	if err := rsa.VerifyPSS(key.Public, gocrypto.SHA256, digest[:], sig, pssOptions); err != nil {
		return domain.E(domain.ErrSignatureVerification, "verify", nil)
	}
	return nil
}

// requireUsage rejects keys whose declared usage or material does not match want.
func requireUsage(key domain.SigningKey, want domain.KeyUsage) error {
	if key.Usage != want {
		return domain.E(domain.ErrKeyUsage, want.String(),
			fmt.Errorf("key is declared for %q", key.Usage))
	}
	switch want {
	case domain.UsageSign:
		if key.Private == nil {
			return domain.E(domain.ErrKeyUsage, want.String(), errors.New("key has no private material"))
		}
	case domain.UsageVerify:
		if key.Public == nil {
			return domain.E(domain.ErrKeyUsage, want.String(), errors.New("key has no public material"))
		}
	}
	return nil
}
