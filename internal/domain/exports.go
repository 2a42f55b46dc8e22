package domain

import (
	interfaces "sigil/internal/domain/interfaces"
	types "sigil/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID         = types.UserID
	Fingerprint    = types.Fingerprint
	KeyUsage       = types.KeyUsage
	SigningKey     = types.SigningKey
	SessionKey     = types.SessionKey
	Identity       = types.Identity
	PeerIdentity   = types.PeerIdentity
	SealedEnvelope = types.SealedEnvelope
	PlainMessage   = types.PlainMessage
	Outcome        = types.Outcome
	Delivery       = types.Delivery
	Relationship   = types.Relationship
)

// Key usages and delivery outcomes re-exported from the types subpackage.
const (
	UsageSign   = types.UsageSign
	UsageVerify = types.UsageVerify

	Opened   = types.Opened
	Rejected = types.Rejected
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService   = interfaces.IdentityService
	SessionService    = interfaces.SessionService
	MessageService    = interfaces.MessageService
	Transport         = interfaces.Transport
	IdentityStore     = interfaces.IdentityStore
	RelationshipStore = interfaces.RelationshipStore
	MessageStore      = interfaces.MessageStore
	PeerDirectory     = interfaces.PeerDirectory
)
