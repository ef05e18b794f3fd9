package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"fmt"
	"os"

	"calmnest-api/cmd/calmnestctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
