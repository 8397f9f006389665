// Package cli implements the hatray CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hatray",
	Short: "Choose which Home Assistant switches appear in the tray",
	Long: `hatray configures the hatrayd tray agent: the Home Assistant connection
and the switch entities shown in the tray menu. Commands go through the
running agent when there is one, and work on the stored files otherwise.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(deselectCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(selectedCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(versionCmd)
}
