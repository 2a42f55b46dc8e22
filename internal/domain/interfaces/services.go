package interfaces

import (
	"context"

	domaintypes "sigil/internal/domain/types"
)

// IdentityService creates, retrieves, exports and destroys your identity.
type IdentityService interface {
	GenerateIdentity(passphrase, displayName string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
	ExportIdentity(passphrase string) (domaintypes.PeerIdentity, error)
	DeleteIdentity() error
}

// SessionService manages the single active relationship and its session key.
type SessionService interface {
	Connect(
		passphrase string,
		peer domaintypes.PeerIdentity,
		key *domaintypes.SessionKey,
	) (domaintypes.Relationship, error)
	Current(passphrase string) (domaintypes.Relationship, error)
	Disconnect() error
}

// MessageService seals, opens, delivers and records messages.
type MessageService interface {
	SealMessage(
		ctx context.Context,
		passphrase string,
		text string,
	) (domaintypes.SealedEnvelope, error)
	SendMessage(
		ctx context.Context,
		passphrase string,
		text string,
	) (domaintypes.SealedEnvelope, error)
	OpenEnvelope(
		ctx context.Context,
		passphrase string,
		envelope domaintypes.SealedEnvelope,
	) (domaintypes.Delivery, error)
	ReceiveMessages(
		ctx context.Context,
		passphrase string,
		limit int,
	) ([]domaintypes.Delivery, error)
	History(ctx context.Context, limit int) ([]domaintypes.PlainMessage, error)
}
