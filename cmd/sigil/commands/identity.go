package commands

import (
	"fmt"
	"os"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"sigil/internal/services/identity"
)

func initCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase(true)
			if err != nil {
				return err
			}
			id, fp, err := appCtx.Identity.GenerateIdentity(pass, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nUser ID:     %s\nFingerprint: %s\n", id.ID, fp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name shown to peers")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			fp, err := appCtx.Identity.FingerprintIdentity(pass)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}

// share prints the public identity JSON a peer passes to connect.
func shareCmd() *cobra.Command {
	var (
		qr  bool
		out string
	)
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print your public identity for a peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			peer, err := appCtx.Identity.ExportIdentity(pass)
			if err != nil {
				return err
			}
			b, err := identity.MarshalPeer(peer)
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			if qr {
				qrterminal.GenerateWithConfig(string(b), qrterminal.Config{
					Level:          qrterminal.L,
					Writer:         w,
					HalfBlocks:     true,
					BlackChar:      qrterminal.BLACK_BLACK,
					WhiteChar:      qrterminal.WHITE_WHITE,
					BlackWhiteChar: qrterminal.BLACK_WHITE,
					WhiteBlackChar: qrterminal.WHITE_BLACK,
					QuietZone:      1,
				})
			} else if out == "" {
				fmt.Fprintln(w, string(b))
			}
			fmt.Fprintf(w, "Fingerprint: %s\n", peer.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&qr, "qr", false, "render the identity as a terminal QR code")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the identity JSON to this file")
	return cmd
}
