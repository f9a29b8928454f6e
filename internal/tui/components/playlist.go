package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/tui/styles"
)

// Playlist displays the playlist with the current entry marked.
type Playlist struct {
	cursor
	size int
}

// NewPlaylist creates a new Playlist component
func NewPlaylist() *Playlist {
	return &Playlist{}
}

// SetSize tells the component how many entries the playlist has.
func (p *Playlist) SetSize(n int) {
	p.size = n
	p.clamp(n, n)
}

// SelectNext moves the selection down.
func (p *Playlist) SelectNext() { p.next(p.size) }

// SelectPrev moves the selection up.
func (p *Playlist) SelectPrev() { p.prev() }

// Selected returns the selected index, or core.NoIndex when empty.
func (p *Playlist) Selected() int {
	if p.size == 0 {
		return core.NoIndex
	}
	return p.selected
}

// Render renders the playlist panel
func (p *Playlist) Render(view session.PlaylistView, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Playlist (%d)", len(view.Tracks)), focused)

	var content string
	if len(view.Tracks) == 0 {
		content = styles.Muted.Render("No tracks in playlist")
	} else {
		content = p.renderTracks(view, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (p *Playlist) renderTracks(view session.PlaylistView, width, maxLines int) string {
	tracks := view.Tracks
	visible := max(1, maxLines-1) // Leave room for "more" indicator
	p.clamp(len(tracks), visible)

	end := min(len(tracks), p.offset+visible)
	lines := make([]string, 0, end-p.offset+1)

	// Fixed overhead: "XX. " (4) + "▶ " (2) + " — " (3) + " m:ss" (6)
	const overhead = 15

	for i := p.offset; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%2d.", i+1)
		duration := track.DisplayDuration()

		available := width - overhead
		title, artist := track.Title, track.Artist
		if len([]rune(title))+len([]rune(artist)) > available {
			artistSpace := min(len([]rune(artist)), max(8, available/3))
			title = truncate(title, available-artistSpace)
			artist = truncate(artist, artistSpace)
		}

		var line string
		if i == view.Current {
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s — %s %s", num, title, artist, duration))
		} else {
			line = fmt.Sprintf("%s   %s — %s %s",
				styles.Dim.Render(num),
				title,
				styles.Muted.Render(artist),
				styles.Dim.Render(duration))
		}
		if i == p.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
