package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/domain"
)

const testPass = "Correct-Horse-9-Battery"

// run executes the CLI against home and returns stdout.
func run(t *testing.T, home string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--home", home,
		"--passphrase", testPass,
		"--scrypt-cost", "1024",
		"--log-level", "error",
	}, args...))
	defer closeApp()
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_SealAndOpenBetweenTwoHomes(t *testing.T) {
	alice := filepath.Join(t.TempDir(), "alice")
	bob := filepath.Join(t.TempDir(), "bob")

	_, err := run(t, alice, "", "init", "--name", "Alice")
	require.NoError(t, err)
	_, err = run(t, bob, "", "init", "--name", "Bob")
	require.NoError(t, err)

	alicePeer := filepath.Join(t.TempDir(), "alice.json")
	bobPeer := filepath.Join(t.TempDir(), "bob.json")
	_, err = run(t, alice, "", "share", "--out", alicePeer)
	require.NoError(t, err)
	_, err = run(t, bob, "", "share", "--out", bobPeer)
	require.NoError(t, err)

	out, err := run(t, alice, "", "connect", bobPeer)
	require.NoError(t, err)
	assert.Contains(t, out, "Connected to Bob")

	key, err := run(t, alice, "", "session-key")
	require.NoError(t, err)
	key = strings.TrimSpace(key)

	_, err = run(t, bob, "", "connect", alicePeer, "--key", key)
	require.NoError(t, err)

	sealed, err := run(t, alice, "", "seal", "meet", "at", "noon")
	require.NoError(t, err)

	out, err = run(t, bob, sealed, "open", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "meet at noon")

	hist, err := run(t, bob, "", "history")
	require.NoError(t, err)
	assert.Contains(t, hist, "meet at noon")

	// A flipped signature bit must be rejected.
	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(sealed), &wire))
	sig, err := base64.StdEncoding.DecodeString(wire["signature"].(string))
	require.NoError(t, err)
	sig[0] ^= 0x01
	wire["signature"] = base64.StdEncoding.EncodeToString(sig)
	b, err := json.Marshal(wire)
	require.NoError(t, err)
	tampered := string(b)

	_, err = run(t, bob, tampered, "open", "-")
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)
}

func TestCLI_SendRecvThroughSpool(t *testing.T) {
	alice := filepath.Join(t.TempDir(), "alice")
	bob := filepath.Join(t.TempDir(), "bob")
	spoolDir := t.TempDir()

	for _, p := range []struct{ home, name string }{{alice, "Alice"}, {bob, "Bob"}} {
		_, err := run(t, p.home, "", "init", "--name", p.name)
		require.NoError(t, err)
	}
	aliceJSON, err := run(t, alice, "", "share")
	require.NoError(t, err)
	bobJSON, err := run(t, bob, "", "share")
	require.NoError(t, err)

	firstLine := func(s string) string { return strings.SplitN(s, "\n", 2)[0] }
	_, err = run(t, alice, firstLine(bobJSON), "connect", "-")
	require.NoError(t, err)
	key, err := run(t, alice, "", "session-key")
	require.NoError(t, err)
	_, err = run(t, bob, firstLine(aliceJSON), "connect", "-", "--key", strings.TrimSpace(key))
	require.NoError(t, err)

	_, err = run(t, alice, "", "--spool", spoolDir, "send", "hello", "bob")
	require.NoError(t, err)

	out, err := run(t, bob, "", "--spool", spoolDir, "recv")
	require.NoError(t, err)
	assert.Contains(t, out, "hello bob")

	out, err = run(t, bob, "", "--spool", spoolDir, "recv")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages.")
}

func TestCLI_ResetRequiresConfirmation(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	_, err := run(t, home, "", "init", "--name", "Alice")
	require.NoError(t, err)

	_, err = run(t, home, "", "reset")
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(home, "identity.json.enc"))

	_, err = run(t, home, "", "reset", "--yes")
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(home, "identity.json.enc"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = run(t, home, "", "fingerprint")
	assert.Error(t, err)
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), &out, t.TempDir()))

	s := out.String()
	assert.Contains(t, s, `opened   from Alice "Hi Bob, it's Alice."`)
	assert.Equal(t, 2, strings.Count(s, "rejected from"))
	assert.Contains(t, s, "sender identity could not be verified")
}
