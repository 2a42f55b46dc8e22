package crypto

import (
	"crypto/rand"
	"io"

	"sigil/internal/domain"
)

// RandomBytes reads n bytes from random, or from crypto/rand when random is
// nil. A short or failed read is reported as ErrRandomnessUnavailable; no
// fallback value is ever produced.
func RandomBytes(random io.Reader, n int) ([]byte, error) {
	if random == nil {
		random = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(random, b); err != nil {
		return nil, domain.E(domain.ErrRandomnessUnavailable, "read random", err)
	}
	return b, nil
}
