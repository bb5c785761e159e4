// Command cardctl is a terminal client for the card service: list and search
// cards, flip through their faces, and create or edit cards with images.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
