package main

import (
	"os"

	"certsentry/cmd/certsentry/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
