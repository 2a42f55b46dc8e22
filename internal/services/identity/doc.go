// Package identity manages creation, encryption, export and deletion of the
// local identity.
//
// It enforces passphrase policy, generates the RSA-PSS signing key pair,
// computes the public-key fingerprint and persists the identity via the
// domain.IdentityStore. It also owns the JSON form of a PeerIdentity that
// participants exchange out-of-band.
package identity
