package store

import (
	"fmt"
	"time"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

// peerRecord is the persisted public identity of a peer.
type peerRecord struct {
	ID          string     `json:"user_id"`
	DisplayName string     `json:"username"`
	PublicKey   crypto.JWK `json:"public_key"`
	Fingerprint string     `json:"fingerprint"`
	PinnedAt    time.Time  `json:"pinned_at,omitzero"`
}

func toPeerRecord(p domain.PeerIdentity) (peerRecord, error) {
	jwk, err := crypto.MarshalPublicJWK(p.SigningPublicKey)
	if err != nil {
		return peerRecord{}, err
	}
	return peerRecord{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		PublicKey:   jwk,
		Fingerprint: p.Fingerprint.String(),
	}, nil
}

// peer rebuilds the identity and refuses records whose fingerprint no longer
// matches the key.
func (r peerRecord) peer() (domain.PeerIdentity, error) {
	key, err := crypto.KeyFromJWK(r.PublicKey, domain.UsageVerify)
	if err != nil {
		return domain.PeerIdentity{}, err
	}
	fp := crypto.Fingerprint(key.Public)
	if fp != domain.Fingerprint(r.Fingerprint) {
		return domain.PeerIdentity{}, domain.E(domain.ErrMalformedIdentity, "load peer",
			fmt.Errorf("stored fingerprint for %q does not match its key", r.ID))
	}
	return domain.PeerIdentity{
		ID:               domain.UserID(r.ID),
		DisplayName:      r.DisplayName,
		SigningPublicKey: key,
		Fingerprint:      fp,
	}, nil
}
