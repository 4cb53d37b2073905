// Command agrichat is the farmers' association support assistant.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/agrichat/agrichat/internal/adapters/driving/cli"
)

func main() {
	// API keys usually live in a local .env during development; a
	// missing file is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
