package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/parchment-labs/quarry/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
