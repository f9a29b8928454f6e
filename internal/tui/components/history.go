package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/tui/styles"
)

// HistoryEntry represents a track in play history
type HistoryEntry struct {
	Track    core.Track
	PlayedAt time.Time
	Skipped  bool
}

// History displays recently played tracks
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel
func (h *History) Render(entries []HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4)
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

func (h *History) renderHistory(entries []HistoryEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	// icon (2) + " — " (3) + padding for time (1)
	const overhead = 6

	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		timeAgo := formatTimeAgo(entry.PlayedAt)
		icon := "✓"
		if entry.Skipped {
			icon = "⏭"
		}

		available := width - overhead - len(timeAgo)
		title, artist := entry.Track.Title, entry.Track.Artist
		if len([]rune(title))+len([]rune(artist)) > available {
			artistSpace := min(len([]rune(artist)), max(8, available/3))
			title = truncate(title, available-artistSpace)
			artist = truncate(artist, artistSpace)
		}

		trackInfo := fmt.Sprintf("%s — %s", title, artist)
		padding := max(1, width-2-lipgloss.Width(trackInfo)-len(timeAgo))

		lines = append(lines, fmt.Sprintf("%s %s%s%s",
			styles.Dim.Render(icon),
			trackInfo,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}
