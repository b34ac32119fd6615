package main

import (
	"os"

	"github.com/temirov/gh-container/cmd/cli"
)

// main executes the gh-container command-line application.
func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stderr))
}
