package main

import (
	"os"

	"sigil/cmd/sigil/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
