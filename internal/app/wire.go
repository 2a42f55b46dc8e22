package app

import (
	"path/filepath"

	"go.uber.org/zap"

	"sigil/internal/domain"
	"sigil/internal/envelope"
	identitysvc "sigil/internal/services/identity"
	messagesvc "sigil/internal/services/message"
	sessionsvc "sigil/internal/services/session"
	"sigil/internal/store"
	"sigil/internal/transport/spool"
)

// Wire bundles all stores, services, and the transport for the CLI.
type Wire struct {
	Identity  *identitysvc.Service
	Sessions  *sessionsvc.Service
	Messages  *messagesvc.Service
	History   *store.HistoryDB
	Peers     domain.PeerDirectory
	Transport domain.Transport
	Log       *zap.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var storeOpts []store.Option
	if cfg.ScryptCost > 0 {
		storeOpts = append(storeOpts, store.WithScryptCost(cfg.ScryptCost))
	}

	// File-based stores
	identityStore := store.NewIdentityFileStore(cfg.Home, storeOpts...)
	relationshipStore := store.NewRelationshipFileStore(cfg.Home, storeOpts...)
	peerStore := store.NewPeerFileStore(cfg.Home)
	history, err := store.OpenHistory(filepath.Join(cfg.Home, store.HistoryFilename))
	if err != nil {
		return nil, err
	}

	// High-level services
	identitySvc := identitysvc.New(identityStore, identitysvc.WithLogger(log.Named("identity")))
	sessionSvc := sessionsvc.New(relationshipStore,
		sessionsvc.WithPeerDirectory(peerStore),
		sessionsvc.WithLogger(log.Named("session")),
	)

	msgOpts := []messagesvc.Option{
		messagesvc.WithSealer(envelope.NewLimitedSealer(envelope.NewSealer(), cfg.SealRate, cfg.Burst)),
		messagesvc.WithWorkers(cfg.Workers),
		messagesvc.WithLogger(log.Named("message")),
	}
	transport := cfg.Transport
	if transport == nil && cfg.SpoolDir != "" {
		transport = spool.New(cfg.SpoolDir)
	}
	if transport != nil {
		msgOpts = append(msgOpts, messagesvc.WithTransport(transport))
	}
	messageSvc := messagesvc.New(identitySvc, sessionSvc, history, msgOpts...)

	return &Wire{
		Identity:  identitySvc,
		Sessions:  sessionSvc,
		Messages:  messageSvc,
		History:   history,
		Peers:     peerStore,
		Transport: transport,
		Log:       log,
	}, nil
}

// Close releases the history database.
func (w *Wire) Close() error {
	return w.History.Close()
}
