package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/sequencer"
)

// Play starts playback. It does nothing while already playing, plays the
// first entry when nothing is loaded and resumes otherwise.
func (s *Session) Play(ctx context.Context) error {
	return s.do(ctx, s.play)
}

func (s *Session) play(ctx context.Context) {
	if s.state == core.StatePlaying {
		return
	}
	if s.playlist.IsEmpty() {
		s.setStatus("No tracks in playlist")
		return
	}
	if s.seq.LoadedSource().IsZero() {
		s.playAt(ctx, 0)
		return
	}
	if err := s.deps.Engine.Play(ctx); err != nil {
		s.engineFailed(err)
		return
	}
	s.setState(core.StatePlaying)
}

// Pause pauses playback.
func (s *Session) Pause(ctx context.Context) error {
	return s.do(ctx, s.pause)
}

func (s *Session) pause(ctx context.Context) {
	if s.state != core.StatePlaying {
		return
	}
	if err := s.deps.Engine.Pause(ctx); err != nil {
		s.engineFailed(err)
		return
	}
	s.setState(core.StatePaused)
}

// TogglePause pauses while playing and plays otherwise.
func (s *Session) TogglePause(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) {
		if s.state == core.StatePlaying {
			s.pause(ctx)
		} else {
			s.play(ctx)
		}
	})
}

// Stop stops playback and rewinds the loaded track.
func (s *Session) Stop(ctx context.Context) error {
	return s.do(ctx, s.stop)
}

func (s *Session) stop(ctx context.Context) {
	if s.deps.Engine != nil {
		if err := s.deps.Engine.Stop(ctx); err != nil {
			s.logger.Warn("engine stop failed", "err", err)
		}
	}
	s.progress = 0
	s.setState(core.StateStopped)
}

// Next plays the following entry under the shuffle and repeat policy.
// At the end of the playlist with repeat off it does nothing.
func (s *Session) Next(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) {
		if next, ok := s.seq.NextIndex(); ok {
			s.playAt(ctx, next)
		}
	})
}

// Previous plays the entry before the current one in playlist order,
// wrapping to the last entry.
func (s *Session) Previous(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) {
		if prev, ok := s.seq.PreviousIndex(); ok {
			s.playAt(ctx, prev)
		}
	})
}

// PlayAt plays the entry at index. It reports false, and changes nothing,
// when index is out of range.
func (s *Session) PlayAt(ctx context.Context, index int) (bool, error) {
	var ok bool
	err := s.do(ctx, func(ctx context.Context) {
		ok = s.playAt(ctx, index)
	})
	return ok, err
}

// playAt loads and plays index. Engine failures become a status message.
func (s *Session) playAt(ctx context.Context, index int) bool {
	track, ok := s.seq.PlayAt(index)
	if !ok {
		return false
	}

	src := core.NewSource(track.Path)
	s.progress = 0
	s.duration = track.Duration

	if err := s.deps.Engine.Load(ctx, src); err != nil {
		s.seq.Loaded(core.Source{})
		s.state = core.StateStopped
		s.emit(Event{Type: EventTrackChanged, State: s.snapshot()})
		s.setStatus(fmt.Sprintf("Cannot play %s: %v", filepath.Base(track.Path), err))
		s.logger.Warn("load failed", "path", track.Path, "err", err)
		return true
	}
	s.seq.Loaded(src)

	if err := s.deps.Engine.Play(ctx); err != nil {
		s.engineFailed(err)
		return true
	}
	s.state = core.StatePlaying
	s.emit(Event{Type: EventTrackChanged, State: s.snapshot()})
	s.setStatus("Now Playing: " + track.NowPlaying())
	s.logger.Debug("playing", "index", index, "path", track.Path, "source", src.ID)
	return true
}

func (s *Session) engineFailed(err error) {
	s.logger.Warn("engine error", "err", err)
	s.setState(core.StateStopped)
	s.setStatus(fmt.Sprintf("Playback error: %v", err))
}

// Seek moves within the current track.
func (s *Session) Seek(ctx context.Context, position time.Duration) error {
	return s.do(ctx, func(ctx context.Context) {
		if s.seq.LoadedSource().IsZero() {
			return
		}
		if position < 0 {
			position = 0
		}
		if s.duration > 0 && position > s.duration {
			position = s.duration
		}
		if err := s.deps.Engine.Seek(ctx, position.Milliseconds()); err != nil {
			s.engineFailed(err)
			return
		}
		s.progress = position
		s.emit(Event{Type: EventPosition, State: s.snapshot()})
	})
}

// SetVolume sets the volume (0-100, clamped) and remembers it.
func (s *Session) SetVolume(ctx context.Context, percent int) (int, error) {
	var volume int
	err := s.do(ctx, func(ctx context.Context) {
		volume = max(0, min(100, percent))
		if s.deps.Engine != nil {
			if err := s.deps.Engine.SetVolume(ctx, float64(volume)/100); err != nil {
				s.engineFailed(err)
				return
			}
		}
		s.volume = volume
		if err := s.deps.Settings.Set(core.SettingVolume, strconv.Itoa(volume)); err != nil {
			s.logger.Warn("failed to save volume", "err", err)
		}
		s.emit(Event{Type: EventVolume, State: s.snapshot()})
	})
	return volume, err
}

// ToggleShuffle flips shuffle and returns the new setting.
func (s *Session) ToggleShuffle(ctx context.Context) (bool, error) {
	var on bool
	err := s.do(ctx, func(context.Context) {
		on = s.seq.ToggleShuffle()
		s.emit(Event{Type: EventModeChanged, State: s.snapshot()})
	})
	return on, err
}

// CycleRepeat advances the repeat mode and returns it.
func (s *Session) CycleRepeat(ctx context.Context) (core.RepeatMode, error) {
	var mode core.RepeatMode
	err := s.do(ctx, func(context.Context) {
		mode = s.seq.CycleRepeat()
		s.emit(Event{Type: EventModeChanged, State: s.snapshot()})
	})
	return mode, err
}

// SetRepeat sets the repeat mode.
func (s *Session) SetRepeat(ctx context.Context, mode core.RepeatMode) error {
	return s.do(ctx, func(context.Context) {
		if s.seq.Repeat() == mode {
			return
		}
		s.seq.SetRepeat(mode)
		s.emit(Event{Type: EventModeChanged, State: s.snapshot()})
	})
}

// Sequence returns the sequencer state, including the shuffle order.
func (s *Session) Sequence(ctx context.Context) (sequencer.Snapshot, error) {
	var snap sequencer.Snapshot
	err := s.do(ctx, func(context.Context) {
		snap = s.seq.Snapshot()
	})
	return snap, err
}

func (s *Session) handleEngineEvent(ctx context.Context, ev core.EngineEvent) {
	loaded := s.seq.LoadedSource()

	switch ev.Type {
	case core.EnginePosition:
		if ev.Source != loaded {
			return
		}
		s.progress = ev.Position
		s.emit(Event{Type: EventPosition, State: s.snapshot()})

	case core.EngineDuration:
		if ev.Source != loaded {
			return
		}
		s.duration = ev.Duration

	case core.EngineEndOfStream:
		action := s.seq.OnEndOfStream(ev.Source)
		s.logger.Debug("end of stream", "path", ev.Source.Path, "action", action.Kind)
		switch action.Kind {
		case sequencer.ActionRestart, sequencer.ActionPlay:
			s.playAt(ctx, action.Index)
		case sequencer.ActionStop:
			s.progress = 0
			s.setState(core.StateStopped)
		}

	case core.EngineError:
		if ev.Source != loaded {
			return
		}
		s.engineFailed(ev.Err)
	}
}
