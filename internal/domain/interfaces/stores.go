package interfaces

import (
	"context"

	domaintypes "sigil/internal/domain/types"
)

// IdentityStore persists your long-term identity, encrypted under a passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	HasIdentity() (bool, error)
	DeleteIdentity() error
}

// RelationshipStore persists the active peer and the session key shared with it.
type RelationshipStore interface {
	SaveRelationship(passphrase string, rel domaintypes.Relationship) error
	LoadRelationship(passphrase string) (domaintypes.Relationship, bool, error)
	DeleteRelationship() error
}

// MessageStore keeps the opened message history. It never sees key material.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg domaintypes.PlainMessage) error
	ListMessages(ctx context.Context, limit int) ([]domaintypes.PlainMessage, error)
	DeleteMessages(ctx context.Context) error
}

// PeerDirectory pins the fingerprint of every peer ever connected, so a
// changed key for a known user can be detected.
type PeerDirectory interface {
	PinPeer(peer domaintypes.PeerIdentity) error
	LookupPeer(id domaintypes.UserID) (domaintypes.PeerIdentity, bool, error)
	ListPeers() ([]domaintypes.PeerIdentity, error)
	ForgetPeer(id domaintypes.UserID) error
	DeletePeers() error
}
