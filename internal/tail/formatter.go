package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/spindle/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. An invalid template is
// reported by ParseTemplate; here it is ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if t, err := ParseTemplate(tmpl); err == nil {
			f.template = t
		}
	}
}

// ParseTemplate parses a --format template. It returns nil for "".
func ParseTemplate(tmpl string) (*template.Template, error) {
	if tmpl == "" {
		return nil, nil
	}
	return template.New("format").Parse(tmpl)
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, f.eventDescription(e))
	return strings.Join(parts, " ")
}

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Index:     core.NoIndex,
	}

	if e.Current != nil {
		data.Volume = e.Current.Volume
		data.State = string(e.Current.State)
		data.Index = e.Current.Index
		data.Shuffle = e.Current.Shuffle
		data.Repeat = e.Current.Repeat.String()
		if t := e.Current.Track; t != nil {
			data.Title = t.Title
			data.Artist = t.Artist
			data.Album = t.Album
			data.Path = t.Path
			data.Duration = t.DisplayDuration()
		}
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Title     string
	Artist    string
	Album     string
	Path      string
	Duration  string
	Index     int
	State     string
	Volume    int
	Shuffle   bool
	Repeat    string
}

func nowPlaying(s *core.PlaybackState) (string, bool) {
	if s == nil || s.Track == nil {
		return "", false
	}
	return s.Track.NowPlaying(), true
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventTrackChange:
		if np, ok := nowPlaying(e.Current); ok {
			return "Now Playing: " + np
		}
		return "Track changed"

	case EventTrackComplete:
		if np, ok := nowPlaying(e.Previous); ok {
			return "Finished: " + np
		}
		return "Track completed"

	case EventTrackSkip:
		if np, ok := nowPlaying(e.Previous); ok {
			return "Skipped: " + np
		}
		return "Track skipped"

	case EventTrackRepeat:
		if np, ok := nowPlaying(e.Current); ok {
			return "Repeating: " + np
		}
		return "Track repeated"

	case EventPause:
		return "Paused"

	case EventResume:
		return "Resumed"

	case EventStop:
		if e.Current != nil && e.Current.Message != "" {
			return "Stopped (" + e.Current.Message + ")"
		}
		return "Stopped"

	case EventVolumeChange:
		if e.Current != nil {
			return fmt.Sprintf("Volume: %d%%", e.Current.Volume)
		}
		return "Volume changed"

	case EventModeChange:
		if e.Current != nil {
			shuffle := "off"
			if e.Current.Shuffle {
				shuffle = "on"
			}
			return fmt.Sprintf("Shuffle: %s, Repeat: %s", shuffle, e.Current.Repeat)
		}
		return "Mode changed"

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventTrackChange:
		return "🎵"
	case EventTrackComplete:
		return "✅"
	case EventTrackSkip:
		return "⏭️"
	case EventTrackRepeat:
		return "🔂"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventStop:
		return "⏹️"
	case EventVolumeChange:
		return "🔊"
	case EventModeChange:
		return "🔀"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventTrackChange:
		return "track_change"
	case EventTrackComplete:
		return "track_complete"
	case EventTrackSkip:
		return "track_skip"
	case EventTrackRepeat:
		return "track_repeat"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventStop:
		return "stop"
	case EventVolumeChange:
		return "volume_change"
	case EventModeChange:
		return "mode_change"
	default:
		return "unknown"
	}
}
