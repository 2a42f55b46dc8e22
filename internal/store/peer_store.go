package store

import (
	"cmp"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"sigil/internal/domain"
)

const peersFilename = "known_peers.json"

// PeerFileStore keeps the public identities of connected peers, keyed by
// user id. It holds no secrets and is stored as plain JSON.
type PeerFileStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewPeerFileStore returns a PeerFileStore rooted at dir.
func NewPeerFileStore(dir string) *PeerFileStore {
	return &PeerFileStore{dir: dir, now: time.Now}
}

// PinPeer stores or replaces the pinned identity of peer.ID.
func (s *PeerFileStore) PinPeer(peer domain.PeerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := toPeerRecord(peer)
	if err != nil {
		return err
	}
	rec.PinnedAt = s.now().UTC()

	path := filepath.Join(s.dir, peersFilename)
	peers := map[string]peerRecord{}
	if err := readJSON(path, &peers); err != nil {
		return err
	}
	peers[rec.ID] = rec
	return writeJSON(path, peers, 0o600)
}

// LookupPeer returns the pinned identity for id.
func (s *PeerFileStore) LookupPeer(id domain.UserID) (domain.PeerIdentity, bool, error) {
	peers, err := s.load()
	if err != nil {
		return domain.PeerIdentity{}, false, err
	}
	rec, ok := peers[id.String()]
	if !ok {
		return domain.PeerIdentity{}, false, nil
	}
	p, err := rec.peer()
	if err != nil {
		return domain.PeerIdentity{}, false, err
	}
	return p, true, nil
}

// ListPeers returns every pinned peer ordered by display name, then id.
func (s *PeerFileStore) ListPeers() ([]domain.PeerIdentity, error) {
	peers, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PeerIdentity, 0, len(peers))
	for _, rec := range peers {
		p, err := rec.peer()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.PeerIdentity) int {
		return cmp.Or(cmp.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// ForgetPeer drops the pin for id; forgetting an unknown id is a no-op.
func (s *PeerFileStore) ForgetPeer(id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, peersFilename)
	peers := map[string]peerRecord{}
	if err := readJSON(path, &peers); err != nil {
		return err
	}
	if _, ok := peers[id.String()]; !ok {
		return nil
	}
	delete(peers, id.String())
	return writeJSON(path, peers, 0o600)
}

// DeletePeers removes every pin.
func (s *PeerFileStore) DeletePeers() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(filepath.Join(s.dir, peersFilename))
}

func (s *PeerFileStore) load() (map[string]peerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers := map[string]peerRecord{}
	if err := readJSON(filepath.Join(s.dir, peersFilename), &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

// Compile-time assertion that PeerFileStore implements domain.PeerDirectory.
var _ domain.PeerDirectory = (*PeerFileStore)(nil)
