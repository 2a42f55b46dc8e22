package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"sigil/internal/crypto"
	"sigil/internal/domain"
	"sigil/internal/util/memzero"
)

const relationshipFilename = "relationship.json.enc"

type relationshipRecord struct {
	Peer          peerRecord `json:"peer"`
	SessionKey    string     `json:"session_key"`
	EstablishedAt time.Time  `json:"established_at"`
}

// RelationshipFileStore persists the active peer and session key, sealed
// under the passphrase.
type RelationshipFileStore struct {
	dir  string
	opts options
	mu   sync.Mutex
}

// NewRelationshipFileStore returns a RelationshipFileStore rooted at dir.
func NewRelationshipFileStore(dir string, opts ...Option) *RelationshipFileStore {
	return &RelationshipFileStore{dir: dir, opts: buildOptions(opts)}
}

// SaveRelationship replaces the stored relationship.
func (s *RelationshipFileStore) SaveRelationship(passphrase string, rel domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	peer, err := toPeerRecord(rel.Peer)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(relationshipRecord{
		Peer:          peer,
		SessionKey:    crypto.MarshalSessionKey(rel.Key),
		EstablishedAt: rel.EstablishedAt,
	})
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(passphrase, raw, s.opts.kdf)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, relationshipFilename), ct, 0o600)
}

// LoadRelationship returns the stored relationship; found is false when
// none has been saved.
func (s *RelationshipFileStore) LoadRelationship(passphrase string) (domain.Relationship, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, relationshipFilename))
	if err != nil || b == nil {
		return domain.Relationship{}, false, err
	}
	pt, err := unseal(passphrase, b)
	if err != nil {
		return domain.Relationship{}, false, err
	}
	defer memzero.Zero(pt)

	var rec relationshipRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.Relationship{}, false, fmt.Errorf("decode relationship: %w", err)
	}
	peer, err := rec.Peer.peer()
	if err != nil {
		return domain.Relationship{}, false, err
	}
	key, err := crypto.ParseSessionKey(rec.SessionKey)
	if err != nil {
		return domain.Relationship{}, false, err
	}
	return domain.Relationship{Peer: peer, Key: key, EstablishedAt: rec.EstablishedAt}, true, nil
}

// DeleteRelationship removes the stored relationship.
func (s *RelationshipFileStore) DeleteRelationship() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(filepath.Join(s.dir, relationshipFilename))
}

// Compile-time assertion that RelationshipFileStore implements domain.RelationshipStore.
var _ domain.RelationshipStore = (*RelationshipFileStore)(nil)
