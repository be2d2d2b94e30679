// Package main is the entry point for nbcheck, the notebook checker shipped
// with nbmetaclean.
package main

import (
	"os"

	"github.com/ayasyrev/nbmetaclean/cmd/nbmetaclean/commands"
)

func main() {
	if err := commands.ExecuteCheck(); err != nil {
		os.Exit(1)
	}
}
