package types

// UserID is the opaque, unique identifier of a participant.
type UserID string

// String returns the string form of the identifier.
func (u UserID) String() string { return string(u) }

// Fingerprint is a short human-verifiable digest of a signing public key.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
