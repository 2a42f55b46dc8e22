package types

import "time"

// Identity is the local participant: long-term signing keys plus profile.
// SigningKey never leaves the local process or its keystore.
type Identity struct {
	ID          UserID
	DisplayName string
	SigningKey  SigningKey
	VerifyKey   SigningKey
	Fingerprint Fingerprint
	CreatedAt   time.Time
}

// Public projects the identity onto the subset that may be shared with peers.
func (id Identity) Public() PeerIdentity {
	return PeerIdentity{
		ID:               id.ID,
		DisplayName:      id.DisplayName,
		SigningPublicKey: id.VerifyKey,
		Fingerprint:      id.Fingerprint,
	}
}

// PeerIdentity is the public part of a remote participant, obtained
// out-of-band (copy/paste or QR).
type PeerIdentity struct {
	ID               UserID
	DisplayName      string
	SigningPublicKey SigningKey
	Fingerprint      Fingerprint
}
