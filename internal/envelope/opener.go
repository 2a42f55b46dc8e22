package envelope

import (
	"errors"
	"unicode/utf8"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

// Opener verifies and decrypts inbound envelopes.
type Opener struct{}

// NewOpener returns an Opener.
func NewOpener() *Opener { return &Opener{} }

// Open verifies env's signature against claimedSender and, only if that
// succeeds, decrypts it under key.
//
// A spoofed sender or any tampering with the ciphertext or signature yields
// ErrSignatureVerification. A wrong or stale session key yields
// ErrDecryption. Bytes that are not UTF-8 yield ErrEncoding. An empty message
// opens to "" with a nil error.
func (o *Opener) Open(
	env domain.SealedEnvelope,
	claimedSender domain.PeerIdentity,
	key domain.SessionKey,
) (string, error) {
	const op = "open"

	if err := checkLengths(env.Nonce, env.Ciphertext, env.Signature); err != nil {
		return "", err
	}

	if err := crypto.Verify(claimedSender.SigningPublicKey, env.Ciphertext, env.Signature); err != nil {
		if errors.Is(err, domain.ErrSignatureVerification) {
			return "", domain.E(domain.ErrSignatureVerification, op, nil)
		}
		return "", domain.E(domain.ErrSignatureVerification, op, err)
	}

	plaintext, err := crypto.Decrypt(key, env.Nonce, env.Ciphertext)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", domain.E(domain.ErrEncoding, op, nil)
	}
	return string(plaintext), nil
}
