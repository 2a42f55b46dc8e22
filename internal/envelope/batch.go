package envelope

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"sigil/internal/domain"
)

// Result is the outcome of opening one envelope in a batch.
type Result struct {
	EnvelopeID string
	Text       string
	Err        error
}

// OpenAll opens envs concurrently on at most workers goroutines (GOMAXPROCS
// when workers <= 0). Each envelope is independent: a rejection is recorded
// in its Result and never stops the batch. The returned slice is in the
// order of envs. Only cancellation of ctx makes OpenAll itself fail.
func OpenAll(
	ctx context.Context,
	opener *Opener,
	envs []domain.SealedEnvelope,
	claimedSender domain.PeerIdentity,
	key domain.SessionKey,
	workers int,
) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(envs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, env := range envs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := opener.Open(env, claimedSender, key)
			results[i] = Result{EnvelopeID: env.ID, Text: text, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
