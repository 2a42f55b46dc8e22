// Package spool is a domain.Transport over a shared directory. Each
// recipient has a subdirectory of wire-format envelope files, one per
// message, which lets separate sigil homes on one machine (or on a synced
// folder) exchange envelopes without a server.
package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"sigil/internal/domain"
	"sigil/internal/envelope"
)

const (
	envelopeExt = ".json"
	rejectExt   = ".bad"
)

// ErrInvalidRecipient is returned for user ids that are not a single path
// element.
var ErrInvalidRecipient = errors.New("recipient id is not a valid spool name")

// ErrAckOutOfRange is returned when Ack names more envelopes than the last
// Fetch returned.
var ErrAckOutOfRange = errors.New("ack exceeds fetched envelopes")

// Transport stores envelopes under dir/<user id>/.
//
// Other processes may add files to a mailbox at any time, so Ack removes the
// files the last Fetch returned rather than whatever currently sorts first.
type Transport struct {
	dir     string
	now     func() time.Time
	mu      sync.Mutex
	fetched map[domain.UserID][]string
}

// New returns a Transport rooted at dir.
func New(dir string) *Transport {
	return &Transport{dir: dir, now: time.Now, fetched: make(map[domain.UserID][]string)}
}

// Deliver writes env as a new file in the recipient's spool.
func (t *Transport) Deliver(ctx context.Context, to domain.UserID, env domain.SealedEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	box, err := t.mailbox(to)
	if err != nil {
		return err
	}
	b, err := envelope.MarshalWire(env)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.MkdirAll(box, 0o700); err != nil {
		return err
	}
	name := fmt.Sprintf("%020d-%s%s", t.now().UnixNano(), sanitize(env.ID), envelopeExt)
	tmp := filepath.Join(box, "."+name+".tmp")
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(box, name))
}

// Fetch returns up to limit envelopes for me in delivery order, leaving them
// in place until acked. Files that do not parse are renamed aside and
// skipped. Each Fetch replaces the set of files a following Ack refers to.
func (t *Transport) Fetch(ctx context.Context, me domain.UserID, limit int) ([]domain.SealedEnvelope, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	names, err := t.pending(me)
	if err != nil {
		return nil, err
	}
	var (
		out  []domain.SealedEnvelope
		seen []string
	)
	delete(t.fetched, me)
	box, _ := t.mailbox(me)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limit > 0 && len(out) == limit {
			break
		}
		path := filepath.Join(box, name)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		env, err := envelope.ParseWire(b)
		if err != nil {
			if rerr := os.Rename(path, path+rejectExt); rerr != nil {
				return nil, rerr
			}
			continue
		}
		out = append(out, env)
		seen = append(seen, name)
	}
	if len(seen) > 0 {
		t.fetched[me] = seen
	}
	return out, nil
}

// Ack removes the first count envelopes returned by the last Fetch for me.
// Files delivered after that Fetch are never touched.
func (t *Transport) Ack(ctx context.Context, me domain.UserID, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	box, err := t.mailbox(me)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	names := t.fetched[me]
	if count < 0 || count > len(names) {
		return fmt.Errorf("%w: ack %d of %d fetched envelopes", ErrAckOutOfRange, count, len(names))
	}
	for i, name := range names[:count] {
		if err := os.Remove(filepath.Join(box, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			t.fetched[me] = names[i:]
			return err
		}
	}
	if rest := names[count:]; len(rest) > 0 {
		t.fetched[me] = rest
	} else {
		delete(t.fetched, me)
	}
	return nil
}

// pending lists envelope files for me, oldest first.
func (t *Transport) pending(me domain.UserID) ([]string, error) {
	box, err := t.mailbox(me)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(box)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && !strings.HasPrefix(name, ".") && strings.HasSuffix(name, envelopeExt) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (t *Transport) mailbox(id domain.UserID) (string, error) {
	s := id.String()
	if s == "" || s != filepath.Base(s) || !filepath.IsLocal(s) || strings.HasPrefix(s, ".") {
		return "", ErrInvalidRecipient
	}
	return filepath.Join(t.dir, s), nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

var _ domain.Transport = (*Transport)(nil)
