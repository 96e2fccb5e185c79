package main

import (
	"os"

	"github.com/joho/godotenv"

	ragcheckcmder "github.com/quarrylabs/ragcheck/cmd/ragcheck"
)

func main() {
	// API keys and overrides may live in a local .env file.
	_ = godotenv.Load()

	cmd := ragcheckcmder.NewRagcheckCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
