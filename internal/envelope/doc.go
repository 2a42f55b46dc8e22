// Package envelope seals plaintext into signed, encrypted envelopes and opens
// them again.
//
// Sealing encrypts under the relationship's session key with a fresh random
// nonce, then signs the ciphertext with the sender's RSA-PSS key. Opening
// verifies the signature against the claimed sender first and only then
// decrypts; an unverified ciphertext is never passed to the AEAD.
//
// Wire format (JSON, all binary fields standard padded base64):
//
//	{"id": "...", "senderId": "...", "iv": "...", "encryptedData": "...",
//	 "signature": "...", "timestamp": 1700000000000}
//
// ParseWire rejects unknown or missing members, trailing data and fields of
// unexpected length with domain.ErrMalformedEnvelope.
package envelope
