package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/tui/styles"
)

// NowPlaying displays the current track and the playback modes.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(state *core.PlaybackState, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !state.HasTrack() {
		content = styles.Muted.Render("No track playing")
	} else {
		content = n.renderTrack(state, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
		"",
		n.renderModes(state),
	))
}

func (n *NowPlaying) renderTrack(state *core.PlaybackState, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.IsPlaying())
	title := styles.Title.Width(max(1, width-4)).Render(truncate(track.Title, width-4))
	artist := styles.Subtitle.Render(truncate(track.Artist, width-2))
	album := styles.Dim.Render(truncate(track.Album, width-2))

	duration := state.Duration
	if duration == 0 {
		duration = track.Duration
	}

	// Account for times on either side
	progressWidth := max(10, width-14)
	progressBar := styles.ProgressBar(state.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		core.FormatDuration(state.Progress), progressBar, core.FormatDuration(duration))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
	)
}

func (n *NowPlaying) renderModes(state *core.PlaybackState) string {
	if state == nil {
		return ""
	}
	return fmt.Sprintf("%s  %s  %s",
		styles.ShuffleIcon(state.Shuffle),
		styles.RepeatIcon(state.Repeat.String()),
		styles.Muted.Render(fmt.Sprintf("🔊 %d%%", state.Volume)))
}
