package session

import (
	"context"
	"fmt"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/library"
)

// Listing is the browser view of the current directory.
type Listing struct {
	Path       string          `json:"path"`
	Entries    []core.Entry    `json:"entries"`
	Crumbs     []library.Crumb `json:"crumbs"`
	CanBack    bool            `json:"can_back"`
	CanForward bool            `json:"can_forward"`
	CanUp      bool            `json:"can_up"`
}

// Location returns the current directory and navigation affordances
// without reading the directory.
func (s *Session) Location(ctx context.Context) (Listing, error) {
	var l Listing
	err := s.do(ctx, func(context.Context) {
		l = s.location()
	})
	return l, err
}

func (s *Session) location() Listing {
	current := s.nav.Current()
	return Listing{
		Path:       current,
		Crumbs:     library.Breadcrumbs(current),
		CanBack:    s.nav.CanBack(),
		CanForward: s.nav.CanForward(),
		CanUp:      s.nav.CanUp(),
	}
}

// Listing returns the current directory with its entries. The directory is
// read off the session loop.
func (s *Session) Listing(ctx context.Context) (Listing, error) {
	l, err := s.Location(ctx)
	if err != nil {
		return l, err
	}
	lister := s.deps.Lister
	if lister == nil {
		lister = library.NewLister(false)
	}
	entries, err := lister.List(l.Path)
	if err != nil {
		return l, fmt.Errorf("failed to read directory: %w", err)
	}
	l.Entries = entries
	return l, nil
}

// Navigate enters path, discarding forward history.
func (s *Session) Navigate(ctx context.Context, path string) (Listing, error) {
	return s.navigate(ctx, func() bool {
		before := s.nav.Current()
		return s.nav.NavigateTo(path) != before
	})
}

// Back returns to the previous directory.
func (s *Session) Back(ctx context.Context) (Listing, error) {
	return s.navigate(ctx, s.nav.Back)
}

// Forward moves to the next directory in history.
func (s *Session) Forward(ctx context.Context) (Listing, error) {
	return s.navigate(ctx, s.nav.Forward)
}

// Up enters the parent directory.
func (s *Session) Up(ctx context.Context) (Listing, error) {
	return s.navigate(ctx, s.nav.Up)
}

func (s *Session) navigate(ctx context.Context, move func() bool) (Listing, error) {
	err := s.do(ctx, func(context.Context) {
		if move() {
			current := s.nav.Current()
			s.watch(current)
			s.emit(Event{Type: EventDirectoryChanged, Directory: current})
		}
	})
	if err != nil {
		return Listing{}, err
	}
	return s.Listing(ctx)
}

func (s *Session) watch(dir string) {
	if s.deps.Watcher == nil {
		return
	}
	if err := s.deps.Watcher.Watch(dir); err != nil {
		s.logger.Warn("cannot watch directory", "dir", dir, "err", err)
	}
}

// DirectoryChanged is called by the directory watcher when dir's contents
// change. Subscribers are told only if dir is still the current directory.
func (s *Session) DirectoryChanged(dir string) {
	go func() {
		_ = s.do(context.Background(), func(context.Context) {
			if dir == s.nav.Current() {
				s.emit(Event{Type: EventDirectoryChanged, Directory: dir})
			}
		})
	}()
}
