package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/capture"
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/config"
	"github.com/vanpelt/codesandbox/internal/explorer"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/tui"
)

var (
	openRun       string
	openCwd       string
	openStartPath string
	openAgent     string
	openRecord    string
)

var openCmd = &cobra.Command{
	Use:   "open [target | page-url]",
	Short: "🖥️  Open the interactive TUI for a sandbox",
	Long: `# 🖥️ Open a Sandbox

**Full-screen client with three tabs: the sandbox's shell, its live diff and a directory explorer.**

## ⌨️ Keys

- **Alt+1 / Alt+2 / Alt+3** - Terminal, Diff and Explorer tabs
- **Ctrl+Q** - quit
- **Alt+↑ / Alt+↓** - scroll the terminal
- **[ / ]** - previous / next file in the diff, **y** copies its diff
- **Enter / Backspace** - open a directory / go up, **s** starts a sandbox there

Everything else typed in the Terminal tab goes to the remote shell.

## 💡 Examples

Attach to a running sandbox:
` + "```bash\ncodesandbox open abc123 --token-from-target\n```" + `

Run a command once the shell is up:
` + "```bash\ncodesandbox open abc123 --run 'make dev' --cwd /workspace\n```" + `

Pick a directory and start a new sandbox:
` + "```bash\ncodesandbox open --start-path /home/me/src\n```" + `

Logs go to **~/.codesandbox/client.log** while the TUI owns the screen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		return runOpen(cmd.Context(), arg)
	},
}

func init() {
	openCmd.Flags().StringVar(&openRun, "run", "", "command to run in the shell once it is connected")
	openCmd.Flags().StringVar(&openCwd, "cwd", "", "working directory for the startup command")
	openCmd.Flags().StringVar(&openStartPath, "start-path", "/", "directory the explorer opens in")
	openCmd.Flags().StringVar(&openAgent, "agent", explorer.DefaultAgent, "agent to start new sandboxes with")
	openCmd.Flags().StringVar(&openRecord, "record", "", "record terminal output to this file")
	rootCmd.AddCommand(openCmd)
}

func runOpen(ctx context.Context, arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	loc, err := resolveLocation(cfg, arg, openRun, openCwd)
	if err != nil {
		return err
	}
	auth, err := sessionAuth(cfg)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAPIClient(loc.server)
	opts := tui.Options{
		Server:       loc.server,
		Auth:         auth,
		Target:       loc.target,
		Page:         loc.page,
		FitDelay:     cfg.FitDelay,
		Changes:      changes.NewClient(client),
		PollInterval: cfg.PollInterval,
		Renderer:     newRenderer(cfg),
		Explorer:     explorer.NewClient(client),
		StartPath:    openStartPath,
		Agent:        openAgent,
	}

	var recorder *capture.Recorder
	if openRecord != "" {
		recorder = capture.NewRecorder(loc.target)
		opts.Tap = recorder
	}

	logger.Infof("🖥️ Opening %s on %s", displayTarget(loc.target), loc.server.Redacted())
	runErr := tui.NewApp(opts).Run(ctx)

	if recorder != nil {
		if err := recorder.Save(openRecord); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "📼 Recorded %d bytes to %s\n", recorder.Metadata().TotalBytes, openRecord)
	}
	return runErr
}

// newRenderer builds the diff renderer with syntax highlighting
func newRenderer(cfg *config.Config) *changes.Renderer {
	return changes.NewRenderer(changes.WithHighlighter(changes.NewHighlighter(cfg.SyntaxStyle)))
}

func displayTarget(target string) string {
	if target == "" {
		return "explorer"
	}
	return target
}
