package core

import "time"

// Entry is one item of a directory listing.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	IsAudio bool      `json:"is_audio"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Lister lists the contents of a directory.
type Lister interface {
	List(path string) ([]Entry, error)
}

// Extractor reads display metadata from an audio file. It never fails:
// unreadable files yield a Track built from the file name.
type Extractor interface {
	Extract(path string) Track
}

// SettingsStore persists small string values across restarts.
type SettingsStore interface {
	Get(key, def string) string
	Set(key, value string) error
}

// Settings keys.
const (
	SettingLastVisited = "library.last_visited"
	SettingVolume      = "playback.volume"
)
