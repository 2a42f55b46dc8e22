package app

import (
	"context"
	"errors"
)

// Reset destroys every piece of local state: message history, the active
// relationship and its session key, pinned peers, and the identity. It keeps
// going after a failure and reports all of them.
func (w *Wire) Reset(ctx context.Context) error {
	var errs []error
	if err := w.History.DeleteMessages(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := w.Sessions.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := w.Peers.DeletePeers(); err != nil {
		errs = append(errs, err)
	}
	if err := w.Identity.DeleteIdentity(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
