package tail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/session"
)

func state(path string, index int, st core.PlayerState, progress time.Duration) *core.PlaybackState {
	s := &core.PlaybackState{Index: index, State: st, Progress: progress, Volume: 80}
	if path != "" {
		t := core.NewTrack(path, core.Track{Artist: "Band", Duration: 100 * time.Second})
		s.Track = &t
		s.Duration = t.Duration
	}
	return s
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiffStates(t *testing.T) {
	playing := core.StatePlaying
	paused := core.StatePaused
	stopped := core.StateStopped

	withVolume := func(s *core.PlaybackState, v int) *core.PlaybackState { s.Volume = v; return s }
	withShuffle := func(s *core.PlaybackState) *core.PlaybackState { s.Shuffle = true; return s }

	tests := []struct {
		name string
		prev *core.PlaybackState
		curr *core.PlaybackState
		want []EventType
	}{
		{
			name: "first state with track",
			curr: state("/m/a.mp3", 0, playing, 0),
			want: []EventType{EventTrackChange},
		},
		{
			name: "first state empty",
			curr: state("", core.NoIndex, stopped, 0),
			want: []EventType{},
		},
		{
			name: "nil current",
			prev: state("/m/a.mp3", 0, playing, 0),
			want: []EventType{},
		},
		{
			name: "no change",
			prev: state("/m/a.mp3", 0, playing, 10*time.Second),
			curr: state("/m/a.mp3", 0, playing, 11*time.Second),
			want: []EventType{},
		},
		{
			name: "skip",
			prev: state("/m/a.mp3", 0, playing, 10*time.Second),
			curr: state("/m/b.mp3", 1, playing, 0),
			want: []EventType{EventTrackSkip, EventTrackChange},
		},
		{
			name: "completion",
			prev: state("/m/a.mp3", 0, playing, 99*time.Second),
			curr: state("/m/b.mp3", 1, playing, 0),
			want: []EventType{EventTrackComplete, EventTrackChange},
		},
		{
			name: "same file at another index",
			prev: state("/m/a.mp3", 0, playing, 10*time.Second),
			curr: state("/m/a.mp3", 3, playing, 0),
			want: []EventType{EventTrackSkip, EventTrackChange},
		},
		{
			name: "repeat one restart",
			prev: state("/m/a.mp3", 0, playing, 99*time.Second),
			curr: state("/m/a.mp3", 0, playing, time.Second),
			want: []EventType{EventTrackRepeat},
		},
		{
			name: "start from nothing",
			prev: state("", core.NoIndex, stopped, 0),
			curr: state("/m/a.mp3", 0, playing, 0),
			want: []EventType{EventTrackChange},
		},
		{
			name: "pause",
			prev: state("/m/a.mp3", 0, playing, 10*time.Second),
			curr: state("/m/a.mp3", 0, paused, 10*time.Second),
			want: []EventType{EventPause},
		},
		{
			name: "resume",
			prev: state("/m/a.mp3", 0, paused, 10*time.Second),
			curr: state("/m/a.mp3", 0, playing, 10*time.Second),
			want: []EventType{EventResume},
		},
		{
			name: "cleared",
			prev: state("/m/a.mp3", 0, playing, 10*time.Second),
			curr: state("", core.NoIndex, stopped, 0),
			want: []EventType{EventStop},
		},
		{
			name: "volume",
			prev: state("/m/a.mp3", 0, playing, 0),
			curr: withVolume(state("/m/a.mp3", 0, playing, 0), 30),
			want: []EventType{EventVolumeChange},
		},
		{
			name: "shuffle",
			prev: state("/m/a.mp3", 0, playing, 0),
			curr: withShuffle(state("/m/a.mp3", 0, playing, 0)),
			want: []EventType{EventModeChange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(Diff(tt.prev, tt.curr))
			if !equalTypes(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

type scriptedSource struct {
	mu     sync.Mutex
	states []*core.PlaybackState
}

func (s *scriptedSource) GetState(ctx context.Context) (*core.PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return nil, errors.New("no more states")
	}
	st := s.states[0]
	if len(s.states) > 1 {
		s.states = s.states[1:]
	}
	return st, nil
}

func TestWatcherPolls(t *testing.T) {
	src := &scriptedSource{states: []*core.PlaybackState{
		state("/m/a.mp3", 0, core.StatePlaying, 0),
		state("/m/a.mp3", 0, core.StatePaused, time.Second),
	}}
	w := NewWatcher(src, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	select {
	case e := <-w.Events():
		if e.Type != EventPause {
			t.Errorf("event = %v, want EventPause", e.Type)
		}
	case <-ctx.Done():
		t.Fatal("no event received")
	}
	w.Stop()
}

func TestWatcherFollows(t *testing.T) {
	stream := make(chan session.Event, 4)
	stream <- session.Event{Type: session.EventStatus}
	stream <- session.Event{Type: session.EventTrackChanged, State: state("/m/b.mp3", 1, core.StatePlaying, 0)}
	close(stream)

	w := NewWatcher(nil, 0)
	initial := state("/m/a.mp3", 0, core.StatePlaying, 99*time.Second)
	if err := w.Follow(context.Background(), initial, stream); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	var got []EventType
	for e := range w.Events() {
		got = append(got, e.Type)
	}
	want := []EventType{EventTrackComplete, EventTrackChange}
	if !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
