// Package history keeps the back/forward stack of visited directories.
package history

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/logging"
)

// DefaultMaxEntries bounds the history when no limit is configured.
const DefaultMaxEntries = 100

// Navigator is a bounded linear history with a cursor. Entries after the
// cursor are forward history and are dropped on the next NavigateTo.
type Navigator struct {
	entries  []string
	cursor   int
	max      int
	root     string
	settings core.SettingsStore
	isDir    func(string) bool
	logger   *log.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithMaxEntries bounds the number of remembered entries. Values below 1
// are ignored.
func WithMaxEntries(n int) Option {
	return func(nav *Navigator) {
		if n > 0 {
			nav.max = n
		}
	}
}

// WithSettings persists every navigation as the last visited directory.
func WithSettings(s core.SettingsStore) Option {
	return func(nav *Navigator) {
		nav.settings = s
	}
}

// WithLogger sets the logger that reports failures to persist the last
// visited directory.
func WithLogger(l *log.Logger) Option {
	return func(nav *Navigator) {
		nav.logger = l
	}
}

// WithDirCheck makes NavigateTo fall back to the root when fn reports the
// target is not a directory.
func WithDirCheck(fn func(string) bool) Option {
	return func(nav *Navigator) {
		nav.isDir = fn
	}
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// New creates an empty navigator whose fallback is root.
func New(root string, opts ...Option) *Navigator {
	nav := &Navigator{
		root:   filepath.Clean(root),
		max:    DefaultMaxEntries,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(nav)
	}
	return nav
}

// Root returns the fallback directory.
func (n *Navigator) Root() string {
	return n.root
}

// Restore starts the history from the persisted last visited directory,
// or the root when none is stored or it is no longer a directory.
func (n *Navigator) Restore() string {
	path := n.root
	if n.settings != nil {
		path = n.settings.Get(core.SettingLastVisited, n.root)
	}
	if path == "" || (n.isDir != nil && !n.isDir(path)) {
		path = n.root
	}
	n.entries = []string{filepath.Clean(path)}
	n.cursor = 0
	return n.entries[0]
}

// NavigateTo makes path current. Forward history is always discarded; the
// path is not appended again when it is already current. It returns the
// directory actually entered, which is the root when path fails the
// directory check.
func (n *Navigator) NavigateTo(path string) string {
	path = filepath.Clean(path)
	if n.isDir != nil && !n.isDir(path) {
		path = n.root
	}

	if len(n.entries) > 0 {
		n.entries = n.entries[:n.cursor+1]
		if n.entries[n.cursor] == path {
			return path
		}
	}
	n.entries = append(n.entries, path)
	if over := len(n.entries) - n.max; over > 0 {
		n.entries = append([]string(nil), n.entries[over:]...)
	}
	n.cursor = len(n.entries) - 1

	if n.settings != nil {
		// Navigation itself cannot fail; a lost write only costs the restore.
		if err := n.settings.Set(core.SettingLastVisited, path); err != nil {
			n.logger.Warn("failed to save last visited directory", "path", path, "err", err)
		}
	}
	return path
}

// Back moves one entry back. It reports whether the cursor moved.
func (n *Navigator) Back() bool {
	if !n.CanBack() {
		return false
	}
	n.cursor--
	return true
}

// Forward moves one entry forward. It reports whether the cursor moved.
func (n *Navigator) Forward() bool {
	if !n.CanForward() {
		return false
	}
	n.cursor++
	return true
}

// Up navigates to the parent of the current directory.
func (n *Navigator) Up() bool {
	if !n.CanUp() {
		return false
	}
	n.NavigateTo(filepath.Dir(n.Current()))
	return true
}

// Current returns the current directory, or the root when empty.
func (n *Navigator) Current() string {
	if len(n.entries) == 0 {
		return n.root
	}
	return n.entries[n.cursor]
}

// CanBack reports whether Back would move.
func (n *Navigator) CanBack() bool {
	return n.cursor > 0
}

// CanForward reports whether Forward would move.
func (n *Navigator) CanForward() bool {
	return n.cursor < len(n.entries)-1
}

// CanUp reports whether the current directory has a distinct parent.
func (n *Navigator) CanUp() bool {
	current := n.Current()
	return filepath.Dir(current) != current
}

// Entries returns a copy of the history and the cursor position.
func (n *Navigator) Entries() ([]string, int) {
	out := make([]string, len(n.entries))
	copy(out, n.entries)
	return out, n.cursor
}
