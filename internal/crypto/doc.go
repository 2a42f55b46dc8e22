// Package crypto exposes the primitives used by sigil.
//
// Contents
//
//   - RSA-PSS (SHA-256) identity key generation, signing and verification
//     with usage-bound keys (GenerateSigningKeyPair, Sign, Verify)
//   - JWK import/export of identity keys (MarshalPublicJWK, MarshalPrivateJWK,
//     ParseJWK, KeyFromJWK)
//   - Short public-key fingerprints for out-of-band checks (Fingerprint)
//   - ChaCha20-Poly1305 session keys and AEAD (NewSessionKey, Encrypt, Decrypt)
//   - Fail-closed random byte reads (RandomBytes)
//
// # Notes
//
// Every failure is a *domain.Error with one of the domain sentinel kinds, so
// callers can match with errors.Is. None of these functions keep state; they
// are safe to call concurrently.
package crypto
