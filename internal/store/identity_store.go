package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"sigil/internal/crypto"
	"sigil/internal/domain"
	"sigil/internal/util/memzero"
)

const idFilename = "identity.json.enc"

// identityRecord is the plaintext sealed inside the identity keystore.
type identityRecord struct {
	ID          string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	PrivateKey  crypto.JWK `json:"private_key"`
	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IdentityFileStore persists the local identity to disk.
type IdentityFileStore struct {
	dir  string
	opts options
	mu   sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string, opts ...Option) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, opts: buildOptions(opts)}
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jwk, err := crypto.MarshalPrivateJWK(id.SigningKey)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(identityRecord{
		ID:          id.ID.String(),
		DisplayName: id.DisplayName,
		PrivateKey:  jwk,
		Fingerprint: id.Fingerprint.String(),
		CreatedAt:   id.CreatedAt,
	})
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(passphrase, raw, s.opts.kdf)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, idFilename), ct, 0o600)
}

// LoadIdentity reads and decrypts the identity. A missing file yields
// domain.ErrNoIdentity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, idFilename))
	if err != nil {
		return domain.Identity{}, err
	}
	if b == nil {
		return domain.Identity{}, domain.ErrNoIdentity
	}
	pt, err := unseal(passphrase, b)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(pt)

	var rec identityRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	signKey, err := crypto.KeyFromJWK(rec.PrivateKey, domain.UsageSign)
	if err != nil {
		return domain.Identity{}, err
	}
	verifyKey := domain.SigningKey{Usage: domain.UsageVerify, Public: signKey.Public}
	fp := crypto.Fingerprint(verifyKey.Public)
	if fp != domain.Fingerprint(rec.Fingerprint) {
		return domain.Identity{}, domain.E(domain.ErrInvalidKey, "load identity",
			errors.New("stored fingerprint does not match key"))
	}
	return domain.Identity{
		ID:          domain.UserID(rec.ID),
		DisplayName: rec.DisplayName,
		SigningKey:  signKey,
		VerifyKey:   verifyKey,
		Fingerprint: fp,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// HasIdentity reports whether an identity file exists.
func (s *IdentityFileStore) HasIdentity() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exists(filepath.Join(s.dir, idFilename))
}

// DeleteIdentity removes the identity file.
func (s *IdentityFileStore) DeleteIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(filepath.Join(s.dir, idFilename))
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
