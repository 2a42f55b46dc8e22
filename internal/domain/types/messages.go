package types

import "time"

// SealedEnvelope is an encrypted, signed message ready for transport.
// Signature covers Ciphertext; Nonce is never reused under one SessionKey.
type SealedEnvelope struct {
	ID         string
	SenderID   UserID
	Nonce      []byte
	Ciphertext []byte
	Signature  []byte
	Timestamp  time.Time
}

// PlainMessage is the opened, application-visible form of a message.
// It never carries key material.
type PlainMessage struct {
	ID            string    `json:"id"`
	SenderID      UserID    `json:"sender_id"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	IsLocalOrigin bool      `json:"is_local_origin"`
}

// Outcome is the terminal state of an inbound envelope.
type Outcome int

const (
	// Opened means the envelope verified and decrypted.
	Opened Outcome = iota + 1
	// Rejected means verification or decryption failed.
	Rejected
)

// String returns a lower-case label for the outcome.
func (o Outcome) String() string {
	switch o {
	case Opened:
		return "opened"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Delivery reports what happened to one fetched envelope. Message is set
// when Outcome is Opened; Err is set when it is Rejected.
type Delivery struct {
	EnvelopeID string
	SenderID   UserID
	Outcome    Outcome
	Message    PlainMessage
	Err        error
}
