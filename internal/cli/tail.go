package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/remote"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
	tailPoll      bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Watch a running player and print playback changes as they happen.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Track repeats
  - Pause, resume and stop
  - Volume, shuffle and repeat changes

Events are pushed over a WebSocket; --poll queries the status instead.`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", 0, "poll interval (default from config)")
	tailCmd.Flags().BoolVar(&tailPoll, "poll", false, "poll instead of subscribing to events")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	if tailFormat != "" {
		if _, err := tail.ParseTemplate(tailFormat); err != nil {
			return fmt.Errorf("invalid format: %w", err)
		}
	}
	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := newClient()
	initial, err := client.Status(ctx)
	if err != nil {
		return err
	}
	showInitialState(initial, formatter)

	interval := tailInterval
	if interval <= 0 {
		interval = time.Duration(cfg.Tail.Interval) * time.Millisecond
	}
	watcher := tail.NewWatcher(client, interval)

	errCh := make(chan error, 1)
	if tailPoll || cfg.Tail.Poll {
		go func() { errCh <- watcher.Start(ctx) }()
	} else {
		stream, err := client.Subscribe(ctx)
		if err != nil {
			return err
		}
		go func() { errCh <- follow(ctx, watcher, client, initial, stream) }()
	}

	for event := range watcher.Events() {
		fmt.Println(formatter.Format(event))
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// follow consumes the pushed event stream. A dropped connection ends the
// command rather than silently switching to polling.
func follow(ctx context.Context, w *tail.Watcher, c *remote.Client, initial *core.PlaybackState, stream <-chan session.Event) error {
	if err := w.Follow(ctx, initial, stream); err != nil {
		return err
	}
	if ctx.Err() == nil {
		if _, err := c.Health(ctx); err != nil {
			return err
		}
		return errors.New("event stream closed by server")
	}
	return nil
}

// showInitialState prints the track that is playing when tail starts.
func showInitialState(st *core.PlaybackState, formatter *tail.Formatter) {
	if !st.HasTrack() {
		return
	}
	fmt.Println(formatter.Format(tail.Event{
		Type:      tail.EventTrackChange,
		Timestamp: time.Now(),
		Current:   st,
	}))
}
