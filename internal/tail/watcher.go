// Package tail turns a stream of playback states into discrete events.
package tail

import (
	"context"
	"time"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/session"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventTrackRepeat
	EventPause
	EventResume
	EventStop
	EventVolumeChange
	EventModeChange
)

// completedFraction is how far into a track playback must be for a track
// change to count as a completion rather than a skip.
const completedFraction = 0.95

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// StateSource reports the current playback state.
type StateSource interface {
	GetState(ctx context.Context) (*core.PlaybackState, error)
}

// Watcher derives events from successive playback states, either by polling
// a StateSource or by following pushed session events.
type Watcher struct {
	source   StateSource
	interval time.Duration
	events   chan Event
	done     chan struct{}
}

// NewWatcher creates a new state watcher.
func NewWatcher(source StateSource, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start polls for state changes until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	var prev *core.PlaybackState

	state, err := w.source.GetState(ctx)
	if err == nil {
		prev = state
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr, err := w.source.GetState(ctx)
			if err != nil {
				continue
			}
			w.publish(Diff(prev, curr))
			prev = curr
		}
	}
}

// Follow consumes pushed session events instead of polling. initial is the
// state the stream starts from and may be nil. It returns when the stream
// closes, ctx is cancelled or Stop is called.
func (w *Watcher) Follow(ctx context.Context, initial *core.PlaybackState, stream <-chan session.Event) error {
	defer close(w.events)

	prev := initial
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case e, ok := <-stream:
			if !ok {
				return nil
			}
			if e.State == nil {
				continue
			}
			w.publish(Diff(prev, e.State))
			prev = e.State
		}
	}
}

func (w *Watcher) publish(events []Event) {
	for _, e := range events {
		select {
		case w.events <- e:
		default:
			// Drop event if channel is full
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// Diff compares two successive states and returns the events between them.
func Diff(prev, curr *core.PlaybackState) []Event {
	if curr == nil {
		return nil
	}

	now := time.Now()
	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
	}

	// First state seen
	if prev == nil {
		if curr.HasTrack() {
			events = append(events, Event{Type: EventTrackChange, Timestamp: now, Current: curr})
		}
		return events
	}

	switch {
	case trackChanged(prev, curr):
		switch {
		case !curr.HasTrack():
			// Cleared or stopped at the end; reported below as a stop.
		case prev.HasTrack() && wasCompleted(prev):
			add(EventTrackComplete)
		case prev.HasTrack():
			add(EventTrackSkip)
		default:
			add(EventTrackChange)
		}
		if prev.HasTrack() && curr.HasTrack() {
			add(EventTrackChange)
		}
	case restarted(prev, curr):
		add(EventTrackRepeat)
	}

	switch {
	case prev.State != curr.State && curr.State == core.StateStopped:
		add(EventStop)
	case prev.State == core.StatePlaying && curr.State == core.StatePaused:
		add(EventPause)
	case prev.State == core.StatePaused && curr.State == core.StatePlaying:
		add(EventResume)
	}

	if prev.Volume != curr.Volume {
		add(EventVolumeChange)
	}

	if prev.Shuffle != curr.Shuffle || prev.Repeat != curr.Repeat {
		add(EventModeChange)
	}

	return events
}

// trackChanged returns true if a different playlist entry is current.
func trackChanged(prev, curr *core.PlaybackState) bool {
	if prev.Track == nil && curr.Track == nil {
		return false
	}
	if prev.Track == nil || curr.Track == nil {
		return true
	}
	return prev.Track.Path != curr.Track.Path || prev.Index != curr.Index
}

// restarted returns true if the same entry started over after finishing,
// as it does under repeat one.
func restarted(prev, curr *core.PlaybackState) bool {
	return prev.HasTrack() && wasCompleted(prev) && curr.Progress < prev.Progress
}

func trackDuration(state *core.PlaybackState) time.Duration {
	if state.Duration > 0 {
		return state.Duration
	}
	if state.Track != nil {
		return state.Track.Duration
	}
	return 0
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(state *core.PlaybackState) bool {
	d := trackDuration(state)
	if state.Track == nil || d == 0 {
		return false
	}
	return float64(state.Progress) >= float64(d)*completedFraction
}
