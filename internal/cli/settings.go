package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lwcdev-io/lwcdev/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View or change workspace settings",
}

var autoOpenCmd = &cobra.Command{
	Use:   "auto-open [on|off]",
	Short: "Show or set automatic preview opening on component switch",
	Long: `Show or set whether the preview panel opens automatically when the
focused editor file switches to a different component.

Without arguments, prints the current value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAutoOpen,
}

func runAutoOpen(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := currentWorkspace()
	if err != nil {
		return err
	}

	store, err := config.NewSettingsStore(workspaceRoot)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if len(args) == 0 {
		fmt.Println(styleLabel.Render("auto-open: ") + styleValue.Render(onOff(store.AutoOpen())))
		return nil
	}

	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
	}

	if err := store.SetAutoOpen(enabled); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println(styleSuccess.Render("auto-open set to " + onOff(enabled)))
	return nil
}

// currentWorkspace resolves the working directory and requires it to be an
// SFDX workspace.
func currentWorkspace() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", err
	}
	if !config.IsWorkspace(abs) {
		return "", fmt.Errorf("%s is not an SFDX workspace (no %s)", abs, config.WorkspaceMarkerFile)
	}
	return abs, nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func init() {
	settingsCmd.AddCommand(autoOpenCmd)
}
