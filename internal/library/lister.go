// Package library lists, scans and watches directories of audio files.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/tessro/spindle/internal/audio"
	"github.com/tessro/spindle/internal/core"
)

// Lister reads directory contents for the browser.
type Lister struct {
	// ShowHidden includes dot-files.
	ShowHidden bool
}

// NewLister creates a Lister.
func NewLister(showHidden bool) *Lister {
	return &Lister{ShowHidden: showHidden}
}

// List returns the entries of dir: directories first, then files, each
// group ordered by case-insensitive name.
func (l *Lister) List(dir string) ([]core.Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	visible := lo.Filter(dirEntries, func(e os.DirEntry, _ int) bool {
		return l.ShowHidden || !strings.HasPrefix(e.Name(), ".")
	})

	entries := lo.FilterMap(visible, func(e os.DirEntry, _ int) (core.Entry, bool) {
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return core.Entry{}, false
		}
		return core.Entry{
			Name:    e.Name(),
			Path:    path,
			IsDir:   info.IsDir(),
			IsAudio: !info.IsDir() && audio.IsAudioFile(path),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}, true
	})

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders directories before files, then by case-insensitive
// name.
func SortEntries(entries []core.Entry) {
	slices.SortStableFunc(entries, func(a, b core.Entry) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// AudioFiles returns the paths of the audio entries.
func AudioFiles(entries []core.Entry) []string {
	return lo.FilterMap(entries, func(e core.Entry, _ int) (string, bool) {
		return e.Path, e.IsAudio
	})
}

// Crumb is one component of a path, with the full path up to it.
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Breadcrumbs splits an absolute path into clickable components, starting
// with the filesystem root.
func Breadcrumbs(path string) []Crumb {
	path = filepath.Clean(path)
	var crumbs []Crumb
	for {
		parent := filepath.Dir(path)
		name := filepath.Base(path)
		if parent == path {
			crumbs = append(crumbs, Crumb{Name: path, Path: path})
			break
		}
		crumbs = append(crumbs, Crumb{Name: name, Path: path})
		path = parent
	}
	slices.Reverse(crumbs)
	return crumbs
}
