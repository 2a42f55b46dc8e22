// Package message seals, opens, delivers and records messages exchanged with
// the connected peer.
//
// Outbound text is encrypted under the relationship's session key and signed
// with the local identity. Inbound envelopes are checked against the connected
// peer, verified, then decrypted. Rejections (spoofed sender, tampering, wrong
// key) are reported per envelope and never stored in history.
package message
