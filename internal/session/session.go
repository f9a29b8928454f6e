// Package session ties the playlist, sequencer and navigation history to an
// engine. All state lives on one goroutine (Run); the exported methods hand
// work to it and wait for the result.
package session

import (
	"context"
	"math/rand/v2"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/history"
	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/sequencer"
	"github.com/tessro/spindle/internal/settings"
)

// DirWatcher follows the directory shown in the browser.
type DirWatcher interface {
	Watch(dir string) error
}

// Deps are the collaborators a session drives. Engine is required; the
// rest fall back to in-memory or no-op versions.
type Deps struct {
	Engine    core.Engine
	Extractor core.Extractor
	Settings  core.SettingsStore
	Lister    core.Lister
	Watcher   DirWatcher
	Logger    *log.Logger
}

// Options are the initial session settings.
type Options struct {
	// Root is the fallback directory for navigation.
	Root string
	// Volume is the starting volume (0-100) when none was saved.
	Volume      int
	Shuffle     bool
	Repeat      core.RepeatMode
	HistorySize int
	// Workers bounds parallel metadata extraction; 0 uses GOMAXPROCS.
	Workers int
	// CheckDirs makes navigation fall back to Root for paths that are not
	// directories.
	CheckDirs bool
	Rand      *rand.Rand
}

// Session is the explicit context object for one player.
type Session struct {
	deps   Deps
	opts   Options
	logger *log.Logger

	playlist *core.Playlist
	seq      *sequencer.Sequencer
	nav      *history.Navigator

	state    core.PlayerState
	progress time.Duration
	duration time.Duration
	volume   int
	message  string

	ops    chan func(ctx context.Context)
	events *broadcaster
	done   chan struct{}
}

// New creates a session. Nothing happens until Run is called.
func New(deps Deps, opts Options) *Session {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewMemory()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Volume < 0 || opts.Volume > 100 {
		opts.Volume = 100
	}

	s := &Session{
		deps:     deps,
		opts:     opts,
		logger:   logging.Component(deps.Logger, "session"),
		playlist: core.NewPlaylist(),
		state:    core.StateStopped,
		ops:      make(chan func(ctx context.Context)),
		events:   newBroadcaster(),
		done:     make(chan struct{}),
	}

	seqOpts := []sequencer.Option{
		sequencer.WithRepeat(opts.Repeat),
		sequencer.WithShuffle(opts.Shuffle),
	}
	if opts.Rand != nil {
		seqOpts = append(seqOpts, sequencer.WithRand(opts.Rand))
	}
	s.seq = sequencer.New(s.playlist, seqOpts...)

	navOpts := []history.Option{
		history.WithMaxEntries(opts.HistorySize),
		history.WithSettings(deps.Settings),
		history.WithLogger(logging.Component(deps.Logger, "history")),
	}
	if opts.CheckDirs {
		navOpts = append(navOpts, history.WithDirCheck(history.IsDir))
	}
	s.nav = history.New(opts.Root, navOpts...)
	s.nav.Restore()

	s.volume = opts.Volume
	if v, err := strconv.Atoi(deps.Settings.Get(core.SettingVolume, "")); err == nil && v >= 0 && v <= 100 {
		s.volume = v
	}

	s.playlist.Observe(func(c core.PlaylistChange) {
		change := c
		s.emit(Event{Type: EventPlaylistChanged, Change: &change, State: s.snapshot()})
	})
	return s
}

// Run processes commands and engine events until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		close(s.done)
		s.seq.Close()
		s.events.closeAll()
	}()

	var engineEvents <-chan core.EngineEvent
	if s.deps.Engine != nil {
		engineEvents = s.deps.Engine.Events()
		if err := s.deps.Engine.SetVolume(ctx, float64(s.volume)/100); err != nil {
			s.logger.Warn("failed to set volume", "err", err)
		}
	}
	s.watch(s.nav.Current())
	s.logger.Info("session started", "dir", s.nav.Current(), "volume", s.volume)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return ctx.Err()
		case op := <-s.ops:
			op(ctx)
		case ev, ok := <-engineEvents:
			if !ok {
				engineEvents = nil
				continue
			}
			s.handleEngineEvent(ctx, ev)
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// do runs fn on the session loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context)) error {
	finished := make(chan struct{})
	op := func(loopCtx context.Context) {
		defer close(finished)
		fn(loopCtx)
	}

	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return spindleerrors.ErrSessionClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return spindleerrors.ErrSessionClosed
	}
}

// Subscribe returns a channel of session events and a function that ends
// the subscription. The channel is closed when the session stops.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

func (s *Session) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.events.publish(e)
}

func (s *Session) setStatus(msg string) {
	s.message = msg
	s.emit(Event{Type: EventStatus, Message: msg, State: s.snapshot()})
}

func (s *Session) setState(state core.PlayerState) {
	if s.state == state {
		return
	}
	s.state = state
	s.emit(Event{Type: EventStateChanged, State: s.snapshot()})
}

// snapshot must be called on the loop.
func (s *Session) snapshot() *core.PlaybackState {
	st := &core.PlaybackState{
		Index:        s.seq.Current(),
		State:        s.state,
		Progress:     s.progress,
		Duration:     s.duration,
		Volume:       s.volume,
		Shuffle:      s.seq.Shuffle(),
		Repeat:       s.seq.Repeat(),
		PlaylistSize: s.playlist.Len(),
		Message:      s.message,
	}
	if !s.seq.LoadedSource().IsZero() {
		if t, ok := s.playlist.Get(s.seq.Current()); ok {
			st.Track = &t
		}
	}
	return st
}

// Status returns a snapshot of the playback state.
func (s *Session) Status(ctx context.Context) (*core.PlaybackState, error) {
	var st *core.PlaybackState
	err := s.do(ctx, func(context.Context) {
		st = s.snapshot()
	})
	return st, err
}
