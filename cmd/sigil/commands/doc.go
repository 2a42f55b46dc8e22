// Package commands defines the sigil CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init          Create the local identity
//   - fingerprint   Print the identity fingerprint
//   - share         Print the shareable public identity (optionally as a QR code)
//   - connect       Make a peer the active relationship
//   - peers         List pinned peers
//   - session-key   Print the session key for out-of-band sharing
//   - disconnect    Forget the active peer and its session key
//   - seal          Encrypt and sign a message, printing the envelope
//   - open          Verify and decrypt an envelope
//   - send          Seal a message into the shared spool
//   - recv          Open queued envelopes from the shared spool
//   - history       Show opened and sent messages
//   - demo          Run an in-memory Alice/Bob/Carol exchange
//   - reset         Delete identity, relationship, pins and history
//
// # Configuration
//
// Settings resolve from flags, then SIGIL_* environment variables, then
// config.yaml in the home directory. The passphrase may come from
// --passphrase, SIGIL_PASSPHRASE, or an interactive prompt.
package commands
