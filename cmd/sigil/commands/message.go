package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sigil/internal/domain"
	"sigil/internal/envelope"
)

// seal: encrypt and sign text for the connected peer, print the envelope.
func sealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal <text...>",
		Short: "Encrypt and sign a message, printing the envelope JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			env, err := appCtx.Messages.SealMessage(cmd.Context(), pass, strings.Join(args, " "))
			if err != nil {
				return err
			}
			b, err := envelope.MarshalWire(env)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

// open: verify and decrypt one envelope from a file or stdin.
func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [envelope.json|-]",
		Short: "Verify and decrypt an envelope from the connected peer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			env, err := envelope.ParseWire(data)
			if err != nil {
				return err
			}
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			d, err := appCtx.Messages.OpenEnvelope(cmd.Context(), pass, env)
			if err != nil {
				return err
			}
			printDelivery(cmd.OutOrStdout(), d)
			if d.Outcome == domain.Rejected {
				return d.Err
			}
			return nil
		},
	}
}

// send: seal text into the shared spool for the connected peer.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text...>",
		Short: "Seal a message and queue it in the shared spool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if appCtx.Transport == nil {
				return errors.New("no spool configured; use --spool or SIGIL_SPOOL")
			}
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			env, err := appCtx.Messages.SendMessage(cmd.Context(), pass, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", env.ID)
			return nil
		},
	}
}

// recv: open queued envelopes from the shared spool.
func recvCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch, verify and decrypt queued messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appCtx.Transport == nil {
				return errors.New("no spool configured; use --spool or SIGIL_SPOOL")
			}
			pass, err := passphrase(false)
			if err != nil {
				return err
			}
			ds, err := appCtx.Messages.ReceiveMessages(cmd.Context(), pass, limit)
			for _, d := range ds {
				printDelivery(cmd.OutOrStdout(), d)
			}
			if err != nil {
				return err
			}
			if len(ds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum envelopes to fetch (0 = all)")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show sent and opened messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := appCtx.Messages.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				dir := "<-"
				if m.IsLocalOrigin {
					dir = "->"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
					m.Timestamp.Local().Format(time.DateTime), dir, m.SenderID, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of most recent messages (0 = all)")
	return cmd
}

func printDelivery(w io.Writer, d domain.Delivery) {
	switch d.Outcome {
	case domain.Opened:
		fmt.Fprintf(w, "[%s] %s: %s\n",
			d.Message.Timestamp.Local().Format(time.DateTime), d.SenderID, d.Message.Text)
	default:
		fmt.Fprintf(w, "[rejected] %s from %s: %v\n", d.EnvelopeID, d.SenderID, d.Err)
	}
}
