package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tessro/spindle/internal/audio"
	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/library"
	"github.com/tessro/spindle/internal/metadata"
	"github.com/tessro/spindle/internal/sequencer"
)

// ErrNotAudio is reported for paths that are not audio files.
var ErrNotAudio = errors.New("not an audio file")

// PlaylistView is a copy of the playlist with the current position.
type PlaylistView struct {
	Tracks  []core.Track `json:"tracks"`
	Current int          `json:"current"`
}

// Tracks returns the playlist contents.
func (s *Session) Tracks(ctx context.Context) (PlaylistView, error) {
	var view PlaylistView
	err := s.do(ctx, func(context.Context) {
		view = PlaylistView{Tracks: s.playlist.Tracks(), Current: s.seq.Current()}
	})
	return view, err
}

// Add appends the audio files among paths, in order, as one block.
// Metadata is read in parallel off the session loop. Paths that are missing,
// are directories or are not audio files are skipped and reported in the
// result's errors.
func (s *Session) Add(ctx context.Context, paths []string) (*spindleerrors.PartialResult[[]core.Track], error) {
	result := &spindleerrors.PartialResult[[]core.Track]{}

	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			result.AddError(fmt.Errorf("%s: %w", p, err))
			continue
		}
		info, err := os.Stat(abs)
		switch {
		case err != nil:
			result.AddError(fmt.Errorf("%s: %w", p, err))
		case info.IsDir():
			result.AddError(fmt.Errorf("%s: is a directory", p))
		case !audio.IsAudioFile(abs):
			result.AddError(fmt.Errorf("%s: %w", p, ErrNotAudio))
		default:
			files = append(files, abs)
		}
	}
	if len(files) == 0 {
		return result, nil
	}

	tracks, err := s.extract(ctx, files)
	if err != nil {
		return result, err
	}
	result.Data = tracks

	err = s.do(ctx, func(context.Context) {
		s.playlist.AppendAll(tracks)
		if len(tracks) == 1 {
			s.setStatus("Added: " + filepath.Base(tracks[0].Path))
		} else {
			s.setStatus(fmt.Sprintf("Loaded %d tracks", len(tracks)))
		}
	})
	return result, err
}

// AddDirectory adds the audio files in dir. With recursive set, files in
// subdirectories are included too.
func (s *Session) AddDirectory(ctx context.Context, dir string, recursive bool) (*spindleerrors.PartialResult[[]core.Track], error) {
	opts := library.ScanOptions{}
	if !recursive {
		opts.MaxDepth = 1
	}
	files, err := library.Scan(ctx, dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return s.Add(ctx, files)
}

func (s *Session) extract(ctx context.Context, files []string) ([]core.Track, error) {
	extractor := s.deps.Extractor
	if extractor == nil {
		extractor = metadata.NewExtractor(s.logger)
	}

	tracks := make([]core.Track, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tracks[i] = extractor.Extract(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Remove deletes the entry at index. When the playing entry is removed and
// another entry takes its place, that one starts playing. It reports false
// when index is out of range.
func (s *Session) Remove(ctx context.Context, index int) (bool, error) {
	var ok bool
	err := s.do(ctx, func(ctx context.Context) {
		if ok = s.playlist.RemoveAt(index); !ok {
			return
		}
		action := s.seq.OnRemoved(index)
		if action.Kind == sequencer.ActionPlay {
			s.playAt(ctx, action.Index)
			return
		}
		// The playlist event went out before the current index was adjusted.
		s.emit(Event{Type: EventStateChanged, State: s.snapshot()})
	})
	return ok, err
}

// Clear empties the playlist and stops playback.
func (s *Session) Clear(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) {
		s.playlist.Clear()
		s.stop(ctx)
		s.duration = 0
		s.emit(Event{Type: EventTrackChanged, State: s.snapshot()})
		s.setStatus("Playlist cleared")
	})
}
