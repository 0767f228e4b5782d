package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/explorer"
	"github.com/vanpelt/codesandbox/internal/routing"
)

const requestTimeout = 15 * time.Second

var lsAll bool

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "📁 List directories on the sandbox host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		return runLs(cmd.Context(), cmd.OutOrStdout(), path)
	},
}

var (
	startAgent string
)

var startCmd = &cobra.Command{
	Use:   "start <path>",
	Short: "🚀 Start a new sandbox in a directory",
	Long: `# 🚀 Start a Sandbox

**Ask the backend to start a sandbox rooted at a directory and print its target id and page URL.**

## 💡 Examples

` + "```bash\ncodesandbox start /home/me/src/project\ncodesandbox open \"$(codesandbox start /home/me/src/project)\" --token-from-target\n```",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "show files as well as directories")
	startCmd.Flags().StringVar(&startAgent, "agent", explorer.DefaultAgent, "agent to start the sandbox with")
	rootCmd.AddCommand(lsCmd, startCmd)
}

func runLs(ctx context.Context, out io.Writer, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	entries, err := explorer.NewClient(newAPIClient(cfg.ServerURL())).List(ctx, path)
	if err != nil {
		return err
	}
	if !lsAll {
		entries = explorer.Dirs(entries)
	}
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		fmt.Fprintln(out, name)
	}
	return nil
}

func runStart(ctx context.Context, out, errOut io.Writer, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	server := cfg.ServerURL()
	target, err := explorer.NewClient(newAPIClient(server)).Start(ctx, path, startAgent)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, target)
	fmt.Fprintf(errOut, "🚀 %s\n", routing.PageURL(httpBase(server), target, nil))
	return nil
}
