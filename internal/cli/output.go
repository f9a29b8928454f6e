package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/tessro/spindle/internal/core"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTable creates a table writing to out with the given headers.
func NewTable(out io.Writer, headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(termWidth())
	if len(headers) > 0 {
		t.AppendHeader(table.Row(headers))
	}
	return t
}

func termWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}

// isTerminal reports whether stdout is attached to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TruncateString truncates a string to maxLen runes, adding "..." if
// truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatProgress renders a progress bar width cells wide.
func FormatProgress(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func stateIcon(state core.PlayerState) string {
	switch state {
	case core.StatePlaying:
		return "▶"
	case core.StatePaused:
		return "⏸"
	default:
		return "⏹"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// printState writes the human-readable playback summary.
func printState(w io.Writer, st *core.PlaybackState) {
	if !st.HasTrack() {
		fmt.Fprintln(w, "⏹ Nothing playing")
	} else {
		fmt.Fprintf(w, "%s %s\n", stateIcon(st.State), st.Track.Title)
		fmt.Fprintf(w, "    %s - %s\n", st.Track.Artist, st.Track.Album)
		fmt.Fprintf(w, "    %s %s / %s\n",
			FormatProgress(st.ProgressPercent(), 30),
			core.FormatDuration(st.Progress),
			core.FormatDuration(st.Duration))
		fmt.Fprintf(w, "    Track %d of %d\n", st.Index+1, st.PlaylistSize)
	}
	fmt.Fprintf(w, "    🔊 %d%%  Shuffle: %s  Repeat: %s\n", st.Volume, onOff(st.Shuffle), st.Repeat)
	if st.Message != "" {
		fmt.Fprintf(w, "    %s\n", st.Message)
	}
}
