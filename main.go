// ./main.go
package main

import (
	"github.com/joffreu243-png/humanize/cmd"
)

// main is the entry point for the humanize CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
