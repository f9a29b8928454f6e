package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors - a pleasant color palette
var (
	// Primary colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Accent    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Info    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	Border    = lipgloss.Color("#4B5563") // Light gray
	Text      = lipgloss.Color("#F9FAFB") // White
	TextMuted = lipgloss.Color("#9CA3AF") // Gray
	TextDim   = lipgloss.Color("#6B7280") // Darker gray
)

// Text styles
var (
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	ErrorText lipgloss.Style
	Directory lipgloss.Style
	Selected  lipgloss.Style
)

// Border styles
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	build()
}

// SetTheme switches the palette. "light" suits light terminal backgrounds,
// "dark" dark ones, and "auto" asks the terminal.
func SetTheme(theme string) {
	light := theme == "light" || (theme == "auto" && !lipgloss.HasDarkBackground())
	if light {
		Text = lipgloss.Color("#111827")
		TextMuted = lipgloss.Color("#4B5563")
		TextDim = lipgloss.Color("#6B7280")
		Border = lipgloss.Color("#9CA3AF")
	} else {
		Text = lipgloss.Color("#F9FAFB")
		TextMuted = lipgloss.Color("#9CA3AF")
		TextDim = lipgloss.Color("#6B7280")
		Border = lipgloss.Color("#4B5563")
	}
	build()
}

func build() {
	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(Secondary)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	ErrorText = lipgloss.NewStyle().Foreground(Error)
	Directory = lipgloss.NewStyle().Bold(true).Foreground(Info)
	Selected = lipgloss.NewStyle().Background(lipgloss.Color("237"))

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// ShuffleIcon renders the shuffle indicator, dimmed when off.
func ShuffleIcon(on bool) string {
	if on {
		return Highlight.Render("🔀")
	}
	return Dim.Render("🔀")
}

// RepeatIcon renders the repeat indicator for mode ("off", "all", "one").
func RepeatIcon(mode string) string {
	switch mode {
	case "one":
		return Highlight.Render("🔂")
	case "all":
		return Highlight.Render("🔁")
	default:
		return Dim.Render("🔁")
	}
}
