// Command namecolorctl checks plugin files outside the game: what a config
// selects, and whether the address catalog still matches a game executable.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "namecolorctl",
	Short:        "Inspect name color plugin files",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
