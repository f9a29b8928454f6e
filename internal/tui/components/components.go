// Package components renders the panels of the terminal UI.
package components

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// cursor keeps a selection and scroll offset within a list of n items.
type cursor struct {
	selected int
	offset   int
}

func (c *cursor) next(n int) {
	if c.selected < n-1 {
		c.selected++
	}
}

func (c *cursor) prev() {
	if c.selected > 0 {
		c.selected--
	}
}

// clamp keeps the selection in range and the selection visible in a window
// of visible rows.
func (c *cursor) clamp(n, visible int) {
	if n == 0 {
		c.selected, c.offset = 0, 0
		return
	}
	c.selected = max(0, min(c.selected, n-1))
	visible = max(1, visible)
	if c.selected < c.offset {
		c.offset = c.selected
	}
	if c.selected >= c.offset+visible {
		c.offset = c.selected - visible + 1
	}
	c.offset = max(0, min(c.offset, n-1))
}
