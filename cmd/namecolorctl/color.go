package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhwmods/namecolor/config"
)

func init() {
	rootCmd.AddCommand(parseCmd, checkCmd, colorsCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <value>",
	Short: "Show the color a config value selects",
	Args:  cobra.ExactArgs(1),
	// Values like -1 are colors, not flags.
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		printColor(cmd, config.Parse(args[0]))
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [config-file]",
	Short: "Show the color a config file selects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) > 0 {
			path = args[0]
		}

		c, err := config.Load(path)
		if err != nil {
			return err
		}
		printColor(cmd, c)
		return nil
	},
}

var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "List the accepted colors",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, c := range config.Colors() {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", c.Code(), c)
		}
	},
}

func printColor(cmd *cobra.Command, c config.Color) {
	if c == config.Default {
		fmt.Fprintln(cmd.OutOrStdout(), "default (the game's own color)")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", c, c.Code())
}
