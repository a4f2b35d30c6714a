package config

import (
	"fmt"
	"os"
	"time"
)

// AppendServerError appends one classified server error to the workspace's
// server error log. Log write failures are returned but callers treat them
// as non-fatal.
func AppendServerError(workspace, category, message, stack string) error {
	if err := EnsureWorkspaceDir(workspace); err != nil {
		return fmt.Errorf("failed to ensure logs dir: %w", err)
	}

	f, err := os.OpenFile(ServerErrorLogFile(workspace), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open server error log: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "---")
	fmt.Fprintf(f, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "category: %s\n", category)
	fmt.Fprintf(f, "message: %s\n", message)
	if stack != "" {
		fmt.Fprintln(f, stack)
	}
	return nil
}
