// storyteller is a push-to-talk storyteller for the terminal.
//
// Usage:
//
//	storyteller                      # Run with ./storyteller.yaml
//	storyteller run --config my.yaml # Run with another config file
//	storyteller ask "tell me a story about a fox"
//	storyteller config show          # Print the effective configuration
//	storyteller config schema        # Print the configuration JSON schema
package main

import (
	"os"

	"github.com/koscakluka/ema-storyteller/cmd/storyteller/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
