package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lwcdev-io/lwcdev/internal/buildinfo"
	"github.com/lwcdev-io/lwcdev/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run [workspace]",
	Short: "Start a preview session for an SFDX workspace",
	Long: `Start a preview session for an SFDX workspace.

Without arguments the current directory is used. Once running, the session
reads editor events and commands from stdin, one per line:

  open <path>   treat <path> as the newly focused editor file
  toggle        open the preview panel on the active component, or close it
  reload        restart the preview server and reopen the panel
  quit          end the session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspaceArg(args)
	if err != nil {
		return err
	}

	notifier := &consoleNotifier{}
	status := &consoleStatus{}
	orch := orchestrator.New(workspaceRoot, buildinfo.Version, notifier, status)

	if err := orch.Activate(); err != nil {
		return err
	}
	defer orch.Deactivate()

	if orch.Phase() == orchestrator.PhaseNotApplicable {
		fmt.Println(styleWarning.Render("Not an SFDX workspace (no sfdx-project.json found)."))
		return nil
	}

	fmt.Println(styleSuccess.Render("Preview session running.") + " " + styleHint.Render("Commands: open <path> | toggle | reload | quit"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-sigCh:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := dispatch(orch, line); quit {
				return nil
			}
		}
	}
}

// dispatch routes one stdin command. Returns true when the session should end.
func dispatch(orch *orchestrator.Orchestrator, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "open":
		if len(fields) < 2 {
			fmt.Println(styleWarning.Render("usage: open <path>"))
			return false
		}
		path, err := filepath.Abs(fields[1])
		if err != nil {
			fmt.Println(styleWarning.Render("bad path: " + fields[1]))
			return false
		}
		orch.ActiveFileChanged(path)
	case "toggle":
		orch.TogglePreview()
	case "reload":
		orch.ForceReload()
	case "quit", "exit":
		return true
	default:
		fmt.Println(styleWarning.Render("unknown command: " + fields[0]))
	}
	return false
}

func resolveWorkspaceArg(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	return abs, nil
}

// consoleNotifier renders session notifications to stdout.
type consoleNotifier struct{}

func (n *consoleNotifier) Info(msg string)  { fmt.Println(styleValue.Render(msg)) }
func (n *consoleNotifier) Warn(msg string)  { fmt.Println(styleWarning.Render(msg)) }
func (n *consoleNotifier) Error(msg string) { fmt.Println(styleError.Render(msg)) }

// ErrorWithRetry prints the failure and points at the reload command, which
// re-enters the same flow the retry action would.
func (n *consoleNotifier) ErrorWithRetry(msg string, retry func()) {
	fmt.Println(styleError.Render(msg))
	fmt.Println(styleHint.Render("Type 'reload' to try again."))
}

// consoleStatus prints phase transitions as a status line.
type consoleStatus struct{}

func (s *consoleStatus) Set(text string) {
	fmt.Println(styleLabel.Render("status: ") + styleValue.Render(text))
}
