package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/tui/styles"
)

// Browser displays the current directory of the file browser.
type Browser struct {
	cursor
	path    string
	entries []core.Entry
}

// NewBrowser creates a new Browser component
func NewBrowser() *Browser {
	return &Browser{}
}

// SetListing replaces the displayed directory. The selection is kept when
// the directory is the same, so a refresh does not lose the user's place.
func (b *Browser) SetListing(l session.Listing) {
	if l.Path != b.path {
		b.cursor = cursor{}
	}
	b.path = l.Path
	b.entries = l.Entries
	b.clamp(len(b.entries), len(b.entries))
}

// SelectNext moves the selection down.
func (b *Browser) SelectNext() { b.next(len(b.entries)) }

// SelectPrev moves the selection up.
func (b *Browser) SelectPrev() { b.prev() }

// Selected returns the selected entry.
func (b *Browser) Selected() (core.Entry, bool) {
	if b.selected < 0 || b.selected >= len(b.entries) {
		return core.Entry{}, false
	}
	return b.entries[b.selected], true
}

// Render renders the browser panel
func (b *Browser) Render(l session.Listing, width, height int, focused bool) string {
	title := styles.PanelTitle("Browser", focused)
	crumbs := b.renderCrumbs(l, width-4)

	var content string
	if len(b.entries) == 0 {
		content = styles.Muted.Render("Empty folder")
	} else {
		content = b.renderEntries(width-4, height-6)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		crumbs,
		"",
		content,
	))
}

func (b *Browser) renderCrumbs(l session.Listing, width int) string {
	names := make([]string, len(l.Crumbs))
	for i, c := range l.Crumbs {
		names[i] = c.Name
	}
	nav := ""
	if l.CanBack {
		nav += "◀"
	} else {
		nav += styles.Dim.Render("◀")
	}
	if l.CanForward {
		nav += "▶"
	} else {
		nav += styles.Dim.Render("▶")
	}
	return nav + " " + styles.Subtitle.Render(truncate(strings.Join(names, " › "), width-3))
}

func (b *Browser) renderEntries(width, maxLines int) string {
	b.clamp(len(b.entries), maxLines)

	end := min(len(b.entries), b.offset+max(1, maxLines))
	lines := make([]string, 0, end-b.offset)
	for i := b.offset; i < end; i++ {
		e := b.entries[i]

		var line string
		switch {
		case e.IsDir:
			line = styles.Directory.Render("📁 " + truncate(e.Name, width-3))
		case e.IsAudio:
			line = "🎵 " + truncate(e.Name, width-3)
		default:
			line = styles.Dim.Render("   " + truncate(e.Name, width-3))
		}
		if i == b.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(b.entries) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("   ... and %d more", len(b.entries)-end)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
