package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sigil/internal/crypto"
	"sigil/internal/domain"
	"sigil/internal/services/identity"
)

// connect: make the peer in the given identity file the active relationship.
func connectCmd() *cobra.Command {
	var (
		keyB64 string
		forget bool
	)
	cmd := &cobra.Command{
		Use:   "connect <peer.json|->",
		Short: "Connect to a peer using the identity they shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			peer, err := identity.ParsePeer(data)
			if err != nil {
				return err
			}

			var key *domain.SessionKey
			if keyB64 != "" {
				k, err := crypto.ParseSessionKey(keyB64)
				if err != nil {
					return err
				}
				defer crypto.WipeSessionKey(&k)
				key = &k
			}

			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			if forget {
				if err := appCtx.Sessions.ForgetPeer(peer.ID); err != nil {
					return err
				}
			}
			rel, err := appCtx.Sessions.Connect(pass, peer, key)
			if err != nil {
				return err
			}
			defer crypto.WipeSessionKey(&rel.Key)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Connected to %s (%s)\n", rel.Peer.DisplayName, rel.Peer.ID)
			fmt.Fprintf(w, "Peer fingerprint: %s\n", rel.Peer.Fingerprint)
			fmt.Fprintln(w, "Compare the fingerprint with your peer over a trusted channel.")
			if key == nil {
				fmt.Fprintln(w, "Run 'sigil session-key' and pass the key to your peer's 'connect --key'.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyB64, "key", "k", "", "session key shared by the peer (base64)")
	cmd.Flags().BoolVar(&forget, "forget-pin", false, "accept a changed fingerprint for a known peer")
	return cmd
}

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List peers whose fingerprints are pinned",
		RunE: func(cmd *cobra.Command, args []string) error {
			peers, err := appCtx.Sessions.KnownPeers()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tUSER ID\tFINGERPRINT")
			for _, p := range peers {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.DisplayName, p.ID, p.Fingerprint)
			}
			return tw.Flush()
		},
	}
}

func sessionKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-key",
		Short: "Print the active session key for out-of-band sharing",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			rel, err := appCtx.Sessions.Current(pass)
			if err != nil {
				return err
			}
			defer crypto.WipeSessionKey(&rel.Key)
			fmt.Fprintln(cmd.OutOrStdout(), crypto.MarshalSessionKey(rel.Key))
			return nil
		},
	}
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the active peer and wipe its session key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Sessions.Disconnect(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected.")
			return nil
		},
	}
}

// readInput reads a file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInputSize))
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxInputSize))
}

// maxInputSize bounds identity and envelope files read from disk or stdin.
const maxInputSize = 1 << 20
