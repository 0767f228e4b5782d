package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/config"
	"github.com/vanpelt/codesandbox/internal/logger"
)

var changesWatch bool

var changesCmd = &cobra.Command{
	Use:   "changes <target | page-url>",
	Short: "📝 Show a sandbox's uncommitted changes",
	Long: `# 📝 Sandbox Changes

**Print the working-tree diff of a sandbox with line numbers and syntax highlighting.**

With **--watch** the diff is redrawn every poll interval until interrupted.

## 💡 Examples

` + "```bash\ncodesandbox changes abc123\ncodesandbox changes abc123 --watch\n```",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChanges(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	changesCmd.Flags().BoolVarP(&changesWatch, "watch", "w", false, "keep polling and redraw on every change")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(ctx context.Context, out io.Writer, arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	loc, err := resolveLocation(cfg, arg, "", "")
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := newRenderer(cfg)
	presenter := changes.NewPresenter(changes.NewClient(newAPIClient(loc.server)), cfg.PollInterval)
	presenter.SetTarget(loc.target)

	if !changesWatch {
		presenter.Fetch(ctx)
		snap := presenter.Snapshot()
		fmt.Fprintln(out, renderer.Snapshot(snap))
		if snap.Phase == changes.PhaseError {
			return snap.Err
		}
		return nil
	}

	var mu sync.Mutex
	var last changes.Snapshot
	draw := func() {
		// clear and home, then redraw
		fmt.Fprint(out, "\x1b[H\x1b[2J")
		fmt.Fprintln(out, renderer.Snapshot(last))
		if last.Phase == changes.PhaseReady {
			fmt.Fprintf(out, "\n%s · updated %s\n", loc.target, last.UpdatedAt.Format("15:04:05"))
		}
	}
	presenter.OnChange(func(snap changes.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		last = snap
		draw()
	})

	// A new syntax_style in the config file applies without a restart
	if err := config.Watch(ctx, configPath, func(next *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		renderer = newRenderer(next)
		draw()
	}); err != nil {
		logger.Debugf("config reload disabled: %v", err)
	}

	presenter.Run(ctx)
	return nil
}
