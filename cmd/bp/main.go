// Command bp is the CLI surface over this module's Behavioral Programming
// engine: run, replay, validate, and trace subcommands built on
// internal/cli's cobra wiring.
package main

import (
	"fmt"
	"os"

	"github.com/corewing/bp/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
