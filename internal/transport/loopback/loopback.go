// Package loopback is an in-memory domain.Transport. Envelopes delivered to a
// user are queued in order and stay queued until acked, so participants in
// the same process can exchange messages without a network.
package loopback

import (
	"context"
	"errors"
	"slices"
	"sync"

	"sigil/internal/domain"
)

// ErrAckOutOfRange is returned when more envelopes are acked than are queued.
var ErrAckOutOfRange = errors.New("ack count exceeds queued envelopes")

// Transport keeps one FIFO queue per recipient.
type Transport struct {
	mu     sync.RWMutex
	queues map[domain.UserID][]domain.SealedEnvelope
}

// New returns an empty Transport.
func New() *Transport {
	return &Transport{queues: make(map[domain.UserID][]domain.SealedEnvelope)}
}

// Deliver appends env to the queue of to.
func (t *Transport) Deliver(ctx context.Context, to domain.UserID, env domain.SealedEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("empty recipient")
	}
	t.mu.Lock()
	t.queues[to] = append(t.queues[to], cloneEnvelope(env))
	t.mu.Unlock()
	return nil
}

// Fetch returns up to limit queued envelopes for me without removing them.
// A non-positive limit returns all of them.
func (t *Transport) Fetch(ctx context.Context, me domain.UserID, limit int) ([]domain.SealedEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	q := t.queues[me]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := make([]domain.SealedEnvelope, len(q))
	for i, env := range q {
		out[i] = cloneEnvelope(env)
	}
	return out, nil
}

// Ack removes the first count envelopes from the queue of me.
func (t *Transport) Ack(ctx context.Context, me domain.UserID, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	q := t.queues[me]
	if count < 0 || count > len(q) {
		return ErrAckOutOfRange
	}
	if count == len(q) {
		delete(t.queues, me)
		return nil
	}
	t.queues[me] = slices.Clone(q[count:])
	return nil
}

// Pending reports how many envelopes are queued for me.
func (t *Transport) Pending(me domain.UserID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.queues[me])
}

// cloneEnvelope copies the byte slices so callers can tamper with what they
// fetched without changing the queue.
func cloneEnvelope(env domain.SealedEnvelope) domain.SealedEnvelope {
	env.Nonce = slices.Clone(env.Nonce)
	env.Ciphertext = slices.Clone(env.Ciphertext)
	env.Signature = slices.Clone(env.Signature)
	return env
}

var _ domain.Transport = (*Transport)(nil)
