// Package main is the entry point for the nbmetaclean CLI.
package main

import (
	"os"

	"github.com/ayasyrev/nbmetaclean/cmd/nbmetaclean/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
