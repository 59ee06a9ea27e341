package main

import (
	"fmt"
	"os"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/cmd/distribuicao/commands"
)

// set by the release build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
