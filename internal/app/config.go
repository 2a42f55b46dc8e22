package app

import (
	"time"

	"go.uber.org/zap"

	"sigil/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home      string           // data directory, e.g. $HOME/.sigil
	SpoolDir  string           // shared spool directory; empty disables send/receive
	Transport domain.Transport // optional; takes precedence over SpoolDir
	Logger    *zap.Logger      // optional; defaults to a no-op logger
	SealRate  time.Duration    // minimum interval between seals; zero disables throttling
	Burst     int              // seals allowed back to back before SealRate applies
	Workers   int              // concurrent opens during receive; zero means GOMAXPROCS

	// ScryptCost overrides the keystore KDF cost. Zero keeps the default.
	ScryptCost int
}
