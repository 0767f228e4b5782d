package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/capture"
)

var replaySpeed float64

var replayCmd = &cobra.Command{
	Use:   "replay <recording.json>",
	Short: "🎞️  Play back a recorded session",
	Long: `# 🎞️ Replay a Recording

**Write a recording made with --record back to this terminal with its original timing.**

Use **--speed 0** to dump everything at once, e.g. to pipe into a file.

## 💡 Examples

` + "```bash\ncodesandbox replay session.json\ncodesandbox replay session.json --speed 4\n```",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	},
}

func init() {
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "playback speed multiplier, 0 for no delays")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(ctx context.Context, out, errOut io.Writer, path string) error {
	m, err := capture.Load(path)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if m.Cols > 0 && m.Rows > 0 {
		fmt.Fprintf(errOut, "📼 %s recorded at %dx%d, %d bytes over %.1fs\n",
			displayTarget(m.Target), m.Cols, m.Rows, m.TotalBytes, m.DurationSeconds)
	}
	if err := capture.Replay(ctx, m, out, replaySpeed); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
