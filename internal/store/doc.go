// Package store provides on-disk persistence for sigil.
//
// It contains concrete implementations of the domain storage interfaces.
// Secrets (identity, relationship) are sealed in a passphrase-derived
// keystore blob; public data is plain JSON; message history lives in SQLite.
// All methods are concurrency-safe via internal locking. Files live under the
// configured home directory.
//
// The package includes stores for:
//   - the local identity (IdentityFileStore)
//   - the active relationship and its session key (RelationshipFileStore)
//   - pinned peer fingerprints (PeerFileStore)
//   - opened message history (HistoryDB)
package store
