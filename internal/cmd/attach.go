package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/capture"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/recovery"
	"github.com/vanpelt/codesandbox/internal/session"
	"golang.org/x/term"
)

// detachKey is Ctrl+], as in telnet
const detachKey = 0x1d

var (
	attachRun    string
	attachCwd    string
	attachRecord string
)

var attachCmd = &cobra.Command{
	Use:   "attach <target | page-url>",
	Short: "🔌 Turn this terminal into the sandbox's shell",
	Long: `# 🔌 Attach to a Sandbox

**Raw passthrough of your terminal to the sandbox's shell. No TUI, no emulator: your terminal renders everything.**

## ✨ Behavior

- Window size changes are sent to the remote shell as they happen
- **Ctrl+]** detaches and closes the session
- The session ends when the remote shell exits

## 💡 Examples

` + "```bash\ncodesandbox attach abc123 --token \"$TOKEN\"\ncodesandbox attach abc123 --no-token --record session.json\n```",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttach(cmd.Context(), args[0])
	},
}

func init() {
	attachCmd.Flags().StringVar(&attachRun, "run", "", "command to run in the shell once it is connected")
	attachCmd.Flags().StringVar(&attachCwd, "cwd", "", "working directory for the startup command")
	attachCmd.Flags().StringVar(&attachRecord, "record", "", "record terminal output to this file")
	rootCmd.AddCommand(attachCmd)
}

func runAttach(ctx context.Context, arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	loc, err := resolveLocation(cfg, arg, attachRun, attachCwd)
	if err != nil {
		return err
	}
	auth, err := sessionAuth(cfg)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("attach needs an interactive terminal on stdin")
	}

	var tap io.Writer
	var recorder *capture.Recorder
	if attachRecord != "" {
		recorder = capture.NewRecorder(loc.target)
		if rows, cols, err := pty.Getsize(os.Stdout); err == nil {
			recorder.SetSize(cols, rows)
		}
		tap = recorder
	}

	s, err := session.New(loc.target, session.Options{
		Server:    loc.server,
		Auth:      auth,
		Page:      loc.page,
		Terminal:  session.NewWriterTerminal(os.Stdout),
		Size:      session.SizeFunc(stdoutSize),
		Notifiers: []session.Notifier{session.WinchNotifier{}},
		FitDelay:  cfg.FitDelay,
		Tap:       tap,
	})
	if err != nil {
		return err
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	restore := func() { _ = term.Restore(fd, oldState) }
	defer restore()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := s.Open(ctx); err != nil {
		restore()
		return err
	}

	recovery.SafeGo("attach-stdin", func() {
		pumpStdin(os.Stdin, s)
	})

	select {
	case <-s.Done():
	case <-ctx.Done():
		_ = s.Close()
	}
	restore()

	if recorder != nil {
		if err := recorder.Save(attachRecord); err != nil {
			return err
		}
		logger.Infof("📼 Recorded %d bytes to %s", recorder.Metadata().TotalBytes, attachRecord)
	}

	if reason := s.Reason(); reason != nil && !errors.Is(reason, session.ErrRemoteClosed) {
		return reason
	}
	return nil
}

// pumpStdin forwards keystrokes until stdin ends, the session closes or the
// detach key is pressed
func pumpStdin(r io.Reader, s *session.Session) {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			detach := false
			if i := bytes.IndexByte(chunk, detachKey); i >= 0 {
				chunk, detach = chunk[:i], true
			}
			if len(chunk) > 0 {
				if _, werr := s.Write(chunk); errors.Is(werr, session.ErrSessionClosed) {
					return
				}
			}
			if detach {
				logger.Debugf("🔌 Detach key pressed, closing session")
				_ = s.Close()
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func stdoutSize() (session.Geometry, error) {
	rows, cols, err := pty.Getsize(os.Stdout)
	if err != nil {
		return session.Geometry{}, fmt.Errorf("failed to get terminal size: %w", err)
	}
	return session.Geometry{Cols: cols, Rows: rows}, nil
}
