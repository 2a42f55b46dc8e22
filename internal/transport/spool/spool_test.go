package spool_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/domain"
	"sigil/internal/envelope"
	"sigil/internal/transport/spool"
)

func fakeEnvelope(id string) domain.SealedEnvelope {
	return domain.SealedEnvelope{
		ID:         id,
		SenderID:   "alice",
		Nonce:      bytes.Repeat([]byte{1}, 12),
		Ciphertext: bytes.Repeat([]byte{2}, 32),
		Signature:  bytes.Repeat([]byte{3}, 256),
		Timestamp:  time.UnixMilli(1_700_000_000_000),
	}
}

func TestSpool_DeliverFetchAck(t *testing.T) {
	ctx := context.Background()
	tr := spool.New(t.TempDir())

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, tr.Deliver(ctx, "bob", fakeEnvelope(id)))
	}

	got, err := tr.Fetch(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
	assert.Equal(t, fakeEnvelope("m1").Signature, got[0].Signature)

	require.NoError(t, tr.Ack(ctx, "bob", 2))

	rest, err := tr.Fetch(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "m3", rest[0].ID)

	assert.ErrorIs(t, tr.Ack(ctx, "bob", 2), spool.ErrAckOutOfRange)
}

func TestSpool_AckLeavesLateArrivalsQueued(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tr := spool.New(dir)

	require.NoError(t, tr.Deliver(ctx, "bob", fakeEnvelope("fetched")))
	got, err := tr.Fetch(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Another home named its file before our delivery but renamed it in after
	// the fetch, so it sorts first.
	b, err := envelope.MarshalWire(fakeEnvelope("late"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob", "00000000000000000001-late.json"), b, 0o600))

	require.NoError(t, tr.Ack(ctx, "bob", 1))

	rest, err := tr.Fetch(ctx, "bob", 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(rest))
	for _, env := range rest {
		ids = append(ids, env.ID)
	}
	assert.Equal(t, []string{"late"}, ids)
}

func TestSpool_AckWithoutFetch(t *testing.T) {
	ctx := context.Background()
	tr := spool.New(t.TempDir())
	require.NoError(t, tr.Deliver(ctx, "bob", fakeEnvelope("m1")))

	assert.ErrorIs(t, tr.Ack(ctx, "bob", 1), spool.ErrAckOutOfRange)

	got, err := tr.Fetch(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSpool_EmptyMailbox(t *testing.T) {
	tr := spool.New(t.TempDir())
	got, err := tr.Fetch(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, tr.Ack(context.Background(), "nobody", 0))
}

func TestSpool_MalformedFileIsSetAside(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tr := spool.New(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bob"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob", "00000000000000000000-junk.json"), []byte(`{"id":1}`), 0o600))
	require.NoError(t, tr.Deliver(ctx, "bob", fakeEnvelope("good")))

	got, err := tr.Fetch(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
	assert.FileExists(t, filepath.Join(dir, "bob", "00000000000000000000-junk.json.bad"))
}

func TestSpool_RejectsPathLikeRecipients(t *testing.T) {
	tr := spool.New(t.TempDir())
	for _, id := range []domain.UserID{"", "..", "../etc", "a/b", ".hidden"} {
		err := tr.Deliver(context.Background(), id, fakeEnvelope("x"))
		assert.ErrorIs(t, err, spool.ErrInvalidRecipient, "recipient %q", id)
	}
}
