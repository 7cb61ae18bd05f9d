package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/watcher"
)

var (
	watchQuiet    bool
	watchNoNotify bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute the dashboard when sessions change and alert on notable events",
	Long: `Watch the session database and recompute the dashboard whenever it
changes. Notable events (new weakest criterion, objections below the
threshold, a newly frequent mistake, a broken or restarted trend, a new best
score) trigger desktop notifications and terminal alerts.

Examples:
  pitchlab watch                   # run in foreground (ctrl-c to stop)
  pitchlab watch --quiet           # notifications only
  pitchlab watch --no-notify       # terminal only
  pitchlab watch --debounce 2s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchNoNotify, "no-notify", false, "Do not send desktop notifications")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Delay before recomputing after a change (default: config watch.debounce)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	debounce := e.cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}
	notify := e.cfg.Watch.Notify && !watchNoNotify

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alertFn := func(a watcher.Alert) {
		if notify {
			if err := watcher.Notify(a); err != nil {
				e.logger.Debug("desktop notification failed", "error", err)
			}
		}
		if !watchQuiet {
			printAlert(e.out, a)
		}
	}

	w := watcher.New(e.db, e.scope, e.opts, e.db.Path(), debounce, alertFn)
	w.SetLogger(e.logger)

	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}
	if !watchQuiet {
		fmt.Fprintf(e.out, "pitchlab watching %s...\n", e.db.Path())
		fmt.Fprintf(e.out, "[%s] %s %d sessions, last score %d\n",
			time.Now().Format("15:04:05"), checkMark(), initial.SessionCount, initial.Dashboard.Trend.LastScore)
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Fprintln(e.out, "\nStopped.")
		}
		return nil
	}
	return err
}

// printAlert formats and prints an alert to the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	fmt.Fprintf(w, "[%s] %s %s\n", a.Time.Local().Format("15:04:05"), alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "         %s\n", output.StyleMuted.Render(a.Message))
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("●")
	case "warning":
		return output.StyleWarning.Render("⚠")
	case "info":
		return output.StyleSuccess.Render(checkMark())
	default:
		return " "
	}
}

func checkMark() string {
	return "✓"
}
