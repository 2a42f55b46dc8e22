package crypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"sigil/internal/domain"
)

const (
	// SessionKeySize is the AEAD key size in bytes (256 bits).
	SessionKeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce size in bytes.
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the authentication tag appended to every ciphertext.
	TagSize = chacha20poly1305.Overhead
)

// Encrypt seals plaintext under key and nonce with ChaCha20-Poly1305.
// The caller owns nonce uniqueness.
func Encrypt(key domain.SessionKey, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, domain.E(domain.ErrMalformedEnvelope, "encrypt",
			fmt.Errorf("nonce size %d, want %d", len(nonce), NonceSize))
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext under key and nonce. Any tag mismatch, including
// one caused by the wrong key, is reported as ErrDecryption.
func Decrypt(key domain.SessionKey, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, domain.E(domain.ErrMalformedEnvelope, "decrypt",
			fmt.Errorf("nonce size %d, want %d", len(nonce), NonceSize))
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.E(domain.ErrDecryption, "decrypt", nil)
	}
	if pt == nil {
		pt = []byte{}
	}
	return pt, nil
}
