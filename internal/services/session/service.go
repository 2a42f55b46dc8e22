package session

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"sigil/internal/crypto"
	"sigil/internal/domain"
	"sigil/internal/services/identity"
)

var (
	// ErrStaleSessionKey is returned when a supplied key is the one previously
	// shared with a different peer.
	ErrStaleSessionKey = errors.New("session key was shared with a different peer; use a fresh key")

	// ErrEmptySessionKey is returned when a supplied key is all zero bytes.
	ErrEmptySessionKey = errors.New("session key must not be all zero")

	// ErrPeerKeyChanged is returned when a known user id arrives with a
	// fingerprint other than the pinned one.
	ErrPeerKeyChanged = errors.New("peer fingerprint differs from the pinned one; verify it out-of-band and forget the old pin")
)

// Service persists the active relationship through a RelationshipStore.
type Service struct {
	store  domain.RelationshipStore
	peers  domain.PeerDirectory
	random io.Reader
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRandom replaces the random source used for new session keys.
func WithRandom(r io.Reader) Option { return func(s *Service) { s.random = r } }

// WithClock replaces the clock used for EstablishedAt.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithPeerDirectory enables fingerprint pinning of connected peers.
func WithPeerDirectory(d domain.PeerDirectory) Option { return func(s *Service) { s.peers = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// New constructs a Session Service backed by store.
func New(store domain.RelationshipStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		random: rand.Reader,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Connect makes peer the active relationship.
//
// Rules:
//   - same peer (ID and fingerprint), no key supplied: current key is kept.
//   - key supplied: it becomes the active key.
//   - different peer, no key supplied: a fresh key is generated.
//
// Whenever the peer changes, the previous key is wiped from memory and the
// stored relationship is overwritten.
func (s *Service) Connect(
	passphrase string,
	peer domain.PeerIdentity,
	key *domain.SessionKey,
) (domain.Relationship, error) {
	if err := identity.CheckPeer(peer); err != nil {
		return domain.Relationship{}, err
	}
	if key != nil && key.IsZero() {
		return domain.Relationship{}, ErrEmptySessionKey
	}
	pinned, err := s.checkPin(peer)
	if err != nil {
		return domain.Relationship{}, err
	}

	prev, found, err := s.store.LoadRelationship(passphrase)
	if err != nil {
		return domain.Relationship{}, err
	}
	defer crypto.WipeSessionKey(&prev.Key)

	same := found && samePeer(prev.Peer, peer)
	if found && !same && key != nil && subtle.ConstantTimeCompare(prev.Key[:], key[:]) == 1 {
		return domain.Relationship{}, ErrStaleSessionKey
	}

	rel := domain.Relationship{Peer: peer, EstablishedAt: s.now().UTC()}
	switch {
	case key != nil:
		rel.Key = *key
	case same:
		rel.Key = prev.Key
		rel.EstablishedAt = prev.EstablishedAt
	default:
		k, err := crypto.NewSessionKey(s.random)
		if err != nil {
			return domain.Relationship{}, err
		}
		rel.Key = k
	}

	// Pin before saving so an active relationship is never left unpinned.
	newPin := s.peers != nil && !pinned
	if newPin {
		if err := s.peers.PinPeer(peer); err != nil {
			crypto.WipeSessionKey(&rel.Key)
			return domain.Relationship{}, err
		}
	}
	if err := s.store.SaveRelationship(passphrase, rel); err != nil {
		crypto.WipeSessionKey(&rel.Key)
		if newPin {
			err = errors.Join(err, s.peers.ForgetPeer(peer.ID))
		}
		return domain.Relationship{}, err
	}
	s.log.Info("peer connected",
		zap.String("peer", peer.ID.String()),
		zap.String("fingerprint", peer.Fingerprint.String()),
		zap.Bool("replaced", found && !same),
		zap.Bool("supplied_key", key != nil),
	)
	return rel, nil
}

// Current returns the active relationship or domain.ErrNoRelationship.
func (s *Service) Current(passphrase string) (domain.Relationship, error) {
	rel, found, err := s.store.LoadRelationship(passphrase)
	if err != nil {
		return domain.Relationship{}, err
	}
	if !found {
		return domain.Relationship{}, domain.ErrNoRelationship
	}
	return rel, nil
}

// Disconnect deletes the active peer and its session key.
func (s *Service) Disconnect() error {
	if err := s.store.DeleteRelationship(); err != nil {
		return err
	}
	s.log.Info("peer disconnected")
	return nil
}

// KnownPeers lists pinned peers. Without a directory it returns nil.
func (s *Service) KnownPeers() ([]domain.PeerIdentity, error) {
	if s.peers == nil {
		return nil, nil
	}
	return s.peers.ListPeers()
}

// ForgetPeer removes the pin for id so a new key can be accepted.
func (s *Service) ForgetPeer(id domain.UserID) error {
	if s.peers == nil {
		return nil
	}
	if err := s.peers.ForgetPeer(id); err != nil {
		return err
	}
	s.log.Info("peer pin removed", zap.String("peer", id.String()))
	return nil
}

// checkPin compares peer against the pinned identity for its id and reports
// whether a matching pin already exists.
func (s *Service) checkPin(peer domain.PeerIdentity) (bool, error) {
	if s.peers == nil {
		return false, nil
	}
	pinned, found, err := s.peers.LookupPeer(peer.ID)
	if err != nil {
		return false, err
	}
	if found && pinned.Fingerprint != peer.Fingerprint {
		s.log.Warn("pinned fingerprint mismatch",
			zap.String("peer", peer.ID.String()),
			zap.String("pinned", pinned.Fingerprint.String()),
			zap.String("offered", peer.Fingerprint.String()),
		)
		return false, ErrPeerKeyChanged
	}
	return found, nil
}

func samePeer(a, b domain.PeerIdentity) bool {
	return a.ID == b.ID && a.Fingerprint == b.Fingerprint
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
