// Package cli implements the lwcdev CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lwcdev",
	Short: "Live local preview for Lightning web components",
	Long: `lwcdev runs a live preview loop for Lightning web components in an
SFDX workspace. It mirrors component sources into a local LWR project,
supervises the preview server, and drives a browser preview panel that
follows the file you are editing.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
