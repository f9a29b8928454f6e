package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Placeholders used when a file carries no artist or album tag.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Track is a playlist entry: a file path plus the metadata shown for it.
// Tracks are values and are not modified after creation.
type Track struct {
	Path        string        `json:"path"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	Genre       string        `json:"genre,omitempty"`
	Duration    time.Duration `json:"duration"`
	TrackNumber int           `json:"track_number,omitempty"`
	Year        int           `json:"year,omitempty"`
}

// NewTrack returns a Track for path with the standard fallbacks applied to
// the zero-valued fields of meta.
func NewTrack(path string, meta Track) Track {
	meta.Path = path
	if meta.Title == "" {
		meta.Title = TitleFromPath(path)
	}
	if meta.Artist == "" {
		meta.Artist = UnknownArtist
	}
	if meta.Album == "" {
		meta.Album = UnknownAlbum
	}
	if meta.Duration < 0 {
		meta.Duration = 0
	}
	if meta.TrackNumber < 0 {
		meta.TrackNumber = 0
	}
	return meta
}

// TitleFromPath returns the file name of path without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DurationMs returns the duration in whole milliseconds.
func (t Track) DurationMs() int64 {
	return t.Duration.Milliseconds()
}

// IsZero reports whether t is the empty Track.
func (t Track) IsZero() bool {
	return t.Path == "" && t.Title == ""
}

// DisplayTrackNumber returns the track number, or "-" when unknown.
func (t Track) DisplayTrackNumber() string {
	if t.TrackNumber <= 0 {
		return "-"
	}
	return strconv.Itoa(t.TrackNumber)
}

// DisplayDuration formats the duration as m:ss.
func (t Track) DisplayDuration() string {
	return FormatDuration(t.Duration)
}

// NowPlaying returns the "artist - title" line shown while the track plays.
func (t Track) NowPlaying() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// FormatDuration formats d as m:ss, truncating to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
