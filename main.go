package main

import (
	"fmt"
	"os"

	"github.com/deckhand-io/deckhand/cmd"
	"github.com/deckhand-io/deckhand/domain"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(domain.ExitCodeOf(err))
	}
}
