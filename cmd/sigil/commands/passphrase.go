package commands

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var errPassphraseRequired = errors.New("passphrase required (-p, SIGIL_PASSPHRASE, or a terminal prompt)")

// passphrase returns the configured passphrase or prompts for it without
// echo. With confirm set the prompt asks twice.
func passphrase(confirm bool) (string, error) {
	if p := cfg.GetString(keyPassphrase); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errPassphraseRequired
	}
	p, err := prompt(fd, "Passphrase: ")
	if err != nil {
		return "", err
	}
	if confirm {
		again, err := prompt(fd, "Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", errors.New("passphrases do not match")
		}
	}
	if p == "" {
		return "", errPassphraseRequired
	}
	return p, nil
}

func prompt(fd int, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(b), nil
}
