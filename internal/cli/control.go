package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/remote"
)

var (
	volumeUp   int
	volumeDown int
)

var playCmd = &cobra.Command{
	Use:   "play [index]",
	Short: "Start playback",
	Long: `Resume playback, or play the playlist entry at index (1-based).
With nothing loaded, playback starts at the first entry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runControl(cmd, "▶ Playing", (*remote.Client).Play)
		}
		index, err := parseIndexArg(args[0])
		if err != nil {
			return err
		}
		return runControl(cmd, fmt.Sprintf("▶ Playing track %d", index+1), func(c *remote.Client, ctx context.Context) (*core.PlaybackState, error) {
			return c.PlayAt(ctx, index)
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "⏸ Paused", (*remote.Client).Pause)
	},
}

var toggleCmd = &cobra.Command{
	Use:     "toggle",
	Aliases: []string{"resume"},
	Short:   "Toggle between play and pause",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "", (*remote.Client).TogglePause)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "⏹ Stopped", (*remote.Client).Stop)
	},
}

var nextCmd = &cobra.Command{
	Use:     "next",
	Aliases: []string{"skip"},
	Short:   "Skip to next track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "", (*remote.Client).Next)
	},
}

var prevCmd = &cobra.Command{
	Use:     "prev",
	Aliases: []string{"previous"},
	Short:   "Go to previous track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "", (*remote.Client).Previous)
	},
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Toggle shuffle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, "", (*remote.Client).ToggleShuffle)
	},
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [off|all|one]",
	Short: "Set or cycle the repeat mode",
	Long: `Set the repeat mode. Without an argument the mode cycles
off -> all -> one -> off.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"off", "all", "one"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runControl(cmd, "", (*remote.Client).CycleRepeat)
		}
		mode, err := core.ParseRepeatMode(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		return runControl(cmd, "", func(c *remote.Client, ctx context.Context) (*core.PlaybackState, error) {
			return c.SetRepeat(ctx, mode)
		})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Seek to a position given as m:ss or as seconds.

Examples:
  spindle seek 1:30
  spindle seek 90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		return runControl(cmd, "⏩ Seeked to "+core.FormatDuration(position), func(c *remote.Client, ctx context.Context) (*core.PlaybackState, error) {
			return c.Seek(ctx, position)
		})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Get or set volume",
	Long: `Get or set the playback volume (0-100).

Examples:
  spindle volume          # Show current volume
  spindle volume 50       # Set volume to 50%
  spindle volume --up 10  # Increase by 10%
  spindle volume --down 5 # Decrease by 5%`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

func init() {
	volumeCmd.Flags().IntVar(&volumeUp, "up", 0, "increase volume by amount")
	volumeCmd.Flags().IntVar(&volumeDown, "down", 0, "decrease volume by amount")

	rootCmd.AddCommand(playCmd, pauseCmd, toggleCmd, stopCmd, nextCmd, prevCmd)
	rootCmd.AddCommand(shuffleCmd, repeatCmd, seekCmd, volumeCmd)
}

type controlFunc func(c *remote.Client, ctx context.Context) (*core.PlaybackState, error)

// runControl sends one command to the daemon and reports the resulting
// state. An empty label prints the daemon's status message instead.
func runControl(cmd *cobra.Command, label string, fn controlFunc) error {
	state, err := fn(newClient(), cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(state)
	}

	switch {
	case label != "":
		fmt.Println(label)
	case cmd.Name() == "shuffle":
		fmt.Printf("🔀 Shuffle: %s\n", onOff(state.Shuffle))
	case cmd.Name() == "repeat":
		fmt.Printf("🔁 Repeat: %s\n", state.Repeat)
	case state.HasTrack():
		fmt.Printf("%s %s\n", stateIcon(state.State), state.Track.NowPlaying())
	case state.Message != "":
		fmt.Println(state.Message)
	default:
		fmt.Println(stateIcon(state.State), state.State)
	}
	if Verbose() {
		printState(os.Stdout, state)
	}
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newClient()

	state, err := c.Status(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 && volumeUp == 0 && volumeDown == 0 {
		if JSONOutput() {
			return printJSON(map[string]int{"volume": state.Volume})
		}
		fmt.Printf("🔊 %d%%\n", state.Volume)
		return nil
	}

	target := state.Volume
	switch {
	case len(args) == 1:
		target, err = strconv.Atoi(args[0])
		if err != nil || target < 0 || target > 100 {
			return fmt.Errorf("volume must be a number between 0 and 100")
		}
	case volumeUp > 0:
		target += volumeUp
	case volumeDown > 0:
		target -= volumeDown
	}
	target = max(0, min(100, target))

	state, err = c.SetVolume(ctx, target)
	if err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(map[string]int{"volume": state.Volume})
	}
	fmt.Printf("🔊 Volume: %d%%\n", state.Volume)
	return nil
}

// parseIndexArg converts a 1-based playlist position to an index.
func parseIndexArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid track number %q", s)
	}
	return n - 1, nil
}

// parsePosition accepts m:ss, h:mm:ss or a plain number of seconds.
func parsePosition(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || (i > 0 && v >= 60) {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		total = total*60 + v
	}
	return time.Duration(total * float64(time.Second)), nil
}
