package main

import (
	"os"

	"smallsh/cmd"
	"smallsh/internal/spawn"
)

func main() {
	// Re-executed copies of the shell become the requested program.
	if spawn.Requested() {
		os.Exit(spawn.Main(os.Args))
	}
	os.Exit(cmd.Execute())
}
