package types

import "time"

// Relationship is the active peer connection: who we talk to and the
// session key we share with them. There is at most one at a time.
type Relationship struct {
	Peer          PeerIdentity
	Key           SessionKey
	EstablishedAt time.Time
}
