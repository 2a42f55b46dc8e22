package envelope

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

// Sealer encrypts and signs outbound messages. It holds no per-message state
// and may be shared by concurrent callers.
type Sealer struct {
	random io.Reader
	now    func() time.Time
}

// Option configures a Sealer.
type Option func(*Sealer)

// WithRandom replaces the secure random source used for nonces, signature
// salts and envelope ids.
func WithRandom(r io.Reader) Option {
	return func(s *Sealer) { s.random = r }
}

// WithClock replaces the clock used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sealer) { s.now = now }
}

// NewSealer returns a Sealer using crypto/rand and the wall clock.
func NewSealer(opts ...Option) *Sealer {
	s := &Sealer{random: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seal encrypts plaintext under key with a fresh nonce and signs the
// ciphertext with sender's private key.
//
// Steps:
//  1. Draw a nonce; a failing random source aborts with
//     ErrRandomnessUnavailable.
//  2. Encrypt with ChaCha20-Poly1305.
//  3. Sign the ciphertext with salted RSA-PSS; failures, including a sender
//     key that is not a sign key, abort with ErrSigning.
//  4. Assemble the envelope.
//
// Nothing is returned unless every step succeeds.
func (s *Sealer) Seal(
	plaintext string,
	sender domain.Identity,
	key domain.SessionKey,
) (domain.SealedEnvelope, error) {
	const op = "seal"

	nonce, err := crypto.RandomBytes(s.random, crypto.NonceSize)
	if err != nil {
		return domain.SealedEnvelope{}, err
	}

	ciphertext, err := crypto.Encrypt(key, nonce, []byte(plaintext))
	if err != nil {
		return domain.SealedEnvelope{}, err
	}

	signature, err := crypto.Sign(s.random, sender.SigningKey, ciphertext)
	if err != nil {
		return domain.SealedEnvelope{}, domain.E(domain.ErrSigning, op, err)
	}

	id, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return domain.SealedEnvelope{}, domain.E(domain.ErrRandomnessUnavailable, op, err)
	}

	return domain.SealedEnvelope{
		ID:         id.String(),
		SenderID:   sender.ID,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Signature:  signature,
		Timestamp:  s.now().UTC().Truncate(time.Millisecond),
	}, nil
}
