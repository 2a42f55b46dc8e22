package envelope

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"sigil/internal/domain"
)

// LimitedSealer throttles Seal calls so the number of random nonces drawn
// under one session key grows at a bounded rate.
type LimitedSealer struct {
	sealer  *Sealer
	limiter *rate.Limiter
}

// NewLimitedSealer allows one seal per every interval with bursts of up to
// burst. A non-positive every disables throttling.
func NewLimitedSealer(sealer *Sealer, every time.Duration, burst int) *LimitedSealer {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if burst < 1 {
		burst = 1
	}
	return &LimitedSealer{sealer: sealer, limiter: rate.NewLimiter(limit, burst)}
}

// Seal waits for a token, then seals. A cancelled ctx returns its error and
// draws no nonce.
func (l *LimitedSealer) Seal(
	ctx context.Context,
	plaintext string,
	sender domain.Identity,
	key domain.SessionKey,
) (domain.SealedEnvelope, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return domain.SealedEnvelope{}, err
	}
	return l.sealer.Seal(plaintext, sender, key)
}
