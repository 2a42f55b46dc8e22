package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
	// maxDisplayNameLength caps display names, in runes.
	maxDisplayNameLength = 64
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrInvalidDisplayName is returned for empty or overlong display names.
	ErrInvalidDisplayName = fmt.Errorf(
		"display name must be 1 to %d characters", maxDisplayNameLength,
	)

	// ErrIdentityExists is returned when an identity has already been created.
	ErrIdentityExists = errors.New("identity already exists; reset it first")
)

// Service manages identity key creation and access using a backing store.
//
// The identity contains an RSA-PSS key pair split into a sign-only private
// key and a verify-only public key. Only the public half is ever exported.
type Service struct {
	store   domain.IdentityStore
	random  io.Reader
	keyBits int
	now     func() time.Time
	log     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRandom replaces the random source used for key generation and ids.
func WithRandom(r io.Reader) Option { return func(s *Service) { s.random = r } }

// WithKeyBits sets the RSA modulus size for new identities.
func WithKeyBits(bits int) Option { return func(s *Service) { s.keyBits = bits } }

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// New returns an identity service backed by the given store.
func New(store domain.IdentityStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		random:  rand.Reader,
		keyBits: crypto.DefaultKeyBits,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// GenerateIdentity creates the identity once, saves it encrypted with the
// passphrase and returns it with its fingerprint. If key generation or the
// random source fails, nothing is saved.
func (s *Service) GenerateIdentity(
	passphrase string,
	displayName string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	displayName = strings.TrimSpace(displayName)
	if n := utf8.RuneCountInString(displayName); n == 0 || n > maxDisplayNameLength {
		return domain.Identity{}, "", ErrInvalidDisplayName
	}
	exists, err := s.store.HasIdentity()
	if err != nil {
		return domain.Identity{}, "", err
	}
	if exists {
		return domain.Identity{}, "", ErrIdentityExists
	}

	signKey, verifyKey, err := crypto.GenerateSigningKeyPair(s.random, s.keyBits)
	if err != nil {
		s.log.Error("identity key generation failed", zap.Error(err))
		return domain.Identity{}, "", err
	}
	uid, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return domain.Identity{}, "", domain.E(domain.ErrRandomnessUnavailable, "generate identity", err)
	}

	id := domain.Identity{
		ID:          domain.UserID(uid.String()),
		DisplayName: displayName,
		SigningKey:  signKey,
		VerifyKey:   verifyKey,
		Fingerprint: crypto.Fingerprint(verifyKey.Public),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	s.log.Info("identity created",
		zap.String("user_id", id.ID.String()),
		zap.String("fingerprint", id.Fingerprint.String()),
	)
	return id, id.Fingerprint, nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint of the local signing key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return id.Fingerprint, nil
}

// ExportIdentity returns the shareable public projection of the local identity.
func (s *Service) ExportIdentity(passphrase string) (domain.PeerIdentity, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return domain.PeerIdentity{}, err
	}
	return ExportPublic(id), nil
}

// DeleteIdentity destroys the local identity.
func (s *Service) DeleteIdentity() error {
	if err := s.store.DeleteIdentity(); err != nil {
		return err
	}
	s.log.Info("identity deleted")
	return nil
}

// ExportPublic projects id onto its public subset. It has no side effects
// and never fails.
func ExportPublic(id domain.Identity) domain.PeerIdentity { return id.Public() }

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if utf8.RuneCountInString(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
