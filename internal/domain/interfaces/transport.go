package interfaces

import (
	"context"

	domaintypes "sigil/internal/domain/types"
)

// Transport moves sealed envelopes between participants. It never sees
// plaintext or private keys.
type Transport interface {
	Deliver(ctx context.Context, to domaintypes.UserID, envelope domaintypes.SealedEnvelope) error
	Fetch(
		ctx context.Context,
		me domaintypes.UserID,
		limit int,
	) ([]domaintypes.SealedEnvelope, error)
	Ack(ctx context.Context, me domaintypes.UserID, count int) error
}
