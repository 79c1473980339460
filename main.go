package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"zerodust/cmd"
)

func main() {
	// .env is optional; the environment may already be set
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
