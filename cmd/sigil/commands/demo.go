package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sigil/internal/app"
	"sigil/internal/domain"
	"sigil/internal/transport/loopback"
)

const demoPassphrase = "Demo-Passphrase-2024!"

// demoUser is one participant of the in-memory demo.
type demoUser struct {
	name string
	wire *app.Wire
	id   domain.Identity
}

// demo: Alice and Bob exchange messages; Carol tries to impersonate Alice.
func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run an in-memory Alice/Bob/Carol exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "sigil-demo-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			return runDemo(cmd.Context(), cmd.OutOrStdout(), dir)
		},
	}
}

func runDemo(ctx context.Context, w io.Writer, dir string) error {
	tr := loopback.New()
	users := map[string]*demoUser{}
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		wire, err := app.NewWire(app.Config{
			Home:       filepath.Join(dir, name),
			Transport:  tr,
			Logger:     logger().Named(name),
			ScryptCost: 1 << 12,
		})
		if err != nil {
			return err
		}
		defer wire.Close()
		id, fp, err := wire.Identity.GenerateIdentity(demoPassphrase, name)
		if err != nil {
			return err
		}
		users[name] = &demoUser{name: name, wire: wire, id: id}
		fmt.Fprintf(w, "%-5s created identity %s  fingerprint %s\n", name, id.ID, fp)
	}
	alice, bob, carol := users["Alice"], users["Bob"], users["Carol"]

	// Alice connects first and generates the key; Bob receives it out-of-band.
	rel, err := alice.wire.Sessions.Connect(demoPassphrase, bob.id.Public(), nil)
	if err != nil {
		return err
	}
	if _, err := bob.wire.Sessions.Connect(demoPassphrase, alice.id.Public(), &rel.Key); err != nil {
		return err
	}
	if _, err := carol.wire.Sessions.Connect(demoPassphrase, bob.id.Public(), nil); err != nil {
		return err
	}
	fmt.Fprintln(w, "Alice and Bob share a session key; Carol has her own.")

	send := func(from *demoUser, text string) error {
		if _, err := from.wire.Messages.SendMessage(ctx, demoPassphrase, text); err != nil {
			return err
		}
		fmt.Fprintf(w, "%-5s -> Bob: %q\n", from.name, text)
		return nil
	}
	if err := send(alice, "Hi Bob, it's Alice."); err != nil {
		return err
	}
	if err := send(carol, "Hi Bob, Carol here."); err != nil {
		return err
	}

	// Carol seals with her own key but claims to be Alice.
	forged, err := carol.wire.Messages.SealMessage(ctx, demoPassphrase, "Bob, this is Alice. Send me your keys.")
	if err != nil {
		return err
	}
	forged.SenderID = alice.id.ID
	if err := tr.Deliver(ctx, bob.id.ID, forged); err != nil {
		return err
	}
	fmt.Fprintln(w, "Carol -> Bob: forged envelope claiming to be Alice")

	ds, err := bob.wire.Messages.ReceiveMessages(ctx, demoPassphrase, 0)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Bob receives:")
	for _, d := range ds {
		from := string(d.SenderID)
		for _, u := range users {
			if u.id.ID == d.SenderID {
				from = u.name
			}
		}
		if d.Outcome == domain.Opened {
			fmt.Fprintf(w, "  opened   from %-5s %q\n", from, d.Message.Text)
		} else {
			fmt.Fprintf(w, "  rejected from %-5s %v\n", from, d.Err)
		}
	}
	return nil
}
