package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

// peerWire is the outbound JSON shape of a PeerIdentity.
type peerWire struct {
	UserID               string     `json:"userId"`
	Username             string     `json:"username"`
	PublicKey            crypto.JWK `json:"publicKey"`
	PublicKeyFingerprint string     `json:"publicKeyFingerprint"`
}

// peerInbound uses pointers so missing members are detected.
type peerInbound struct {
	UserID               *string     `json:"userId"`
	Username             *string     `json:"username"`
	PublicKey            *crypto.JWK `json:"publicKey"`
	PublicKeyFingerprint *string     `json:"publicKeyFingerprint"`
}

// MarshalPeer renders peer in the form shared out-of-band.
func MarshalPeer(peer domain.PeerIdentity) ([]byte, error) {
	jwk, err := crypto.MarshalPublicJWK(peer.SigningPublicKey)
	if err != nil {
		return nil, err
	}
	return json.Marshal(peerWire{
		UserID:               peer.ID.String(),
		Username:             peer.DisplayName,
		PublicKey:            jwk,
		PublicKeyFingerprint: peer.Fingerprint.String(),
	})
}

// ParsePeer strictly validates a peer-supplied identity: no unknown or
// missing members (including inside publicKey), no private key members, and
// a fingerprint equal to the one recomputed from the key.
func ParsePeer(data []byte) (domain.PeerIdentity, error) {
	const op = "parse peer identity"
	fail := func(err error) (domain.PeerIdentity, error) {
		return domain.PeerIdentity{}, domain.E(domain.ErrMalformedIdentity, op, err)
	}

	var in peerInbound
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return fail(err)
	}
	if dec.More() {
		return fail(errors.New("trailing data"))
	}
	switch {
	case in.UserID == nil || *in.UserID == "":
		return fail(errors.New(`missing "userId"`))
	case in.Username == nil || *in.Username == "":
		return fail(errors.New(`missing "username"`))
	case in.PublicKey == nil:
		return fail(errors.New(`missing "publicKey"`))
	case in.PublicKeyFingerprint == nil:
		return fail(errors.New(`missing "publicKeyFingerprint"`))
	case in.PublicKey.IsPrivate():
		return fail(errors.New("publicKey carries private members"))
	}

	key, err := crypto.KeyFromJWK(*in.PublicKey, domain.UsageVerify)
	if err != nil {
		return fail(err)
	}
	want := crypto.Fingerprint(key.Public)
	if got := domain.Fingerprint(*in.PublicKeyFingerprint); got != want {
		return fail(fmt.Errorf("fingerprint %q does not match key (%q)", got, want))
	}
	return domain.PeerIdentity{
		ID:               domain.UserID(*in.UserID),
		DisplayName:      *in.Username,
		SigningPublicKey: key,
		Fingerprint:      want,
	}, nil
}

// CheckPeer verifies that an in-memory PeerIdentity is usable: a verify-only
// key whose fingerprint matches.
func CheckPeer(peer domain.PeerIdentity) error {
	const op = "check peer identity"
	if peer.ID == "" {
		return domain.E(domain.ErrMalformedIdentity, op, errors.New("empty id"))
	}
	if peer.SigningPublicKey.Usage != domain.UsageVerify || peer.SigningPublicKey.Public == nil {
		return domain.E(domain.ErrKeyUsage, op, errors.New("peer key must be verify-only"))
	}
	if want := crypto.Fingerprint(peer.SigningPublicKey.Public); peer.Fingerprint != want {
		return domain.E(domain.ErrMalformedIdentity, op,
			fmt.Errorf("fingerprint %q does not match key (%q)", peer.Fingerprint, want))
	}
	return nil
}
