// Package sequencer decides which playlist entry plays next under the
// shuffle and repeat policies. It never talks to the engine itself: every
// decision comes back as an Action for the session loop to carry out.
package sequencer

import (
	"math/rand/v2"
	"slices"

	"github.com/tessro/spindle/internal/core"
)

// ActionKind is what the caller should do with the engine.
type ActionKind int

const (
	ActionNone    ActionKind = iota // nothing to do
	ActionPlay                      // load and play Index
	ActionRestart                   // seek the loaded track to 0 and play
	ActionStop                      // end of playlist; stop
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlay:
		return "play"
	case ActionRestart:
		return "restart"
	case ActionStop:
		return "stop"
	default:
		return "none"
	}
}

// Action is a decision returned by the sequencer.
type Action struct {
	Kind  ActionKind
	Index int
}

// Snapshot is a copy of the sequencer state for display.
type Snapshot struct {
	Current int             `json:"current"`
	Shuffle bool            `json:"shuffle"`
	Repeat  core.RepeatMode `json:"repeat"`
	Order   []int           `json:"order,omitempty"`
}

// Sequencer tracks the current index and play-order policy for a playlist.
// Like the playlist it observes, it is owned by a single goroutine.
type Sequencer struct {
	playlist *core.Playlist
	current  int
	shuffle  bool
	order    []int
	repeat   core.RepeatMode
	loaded   core.Source
	rng      *rand.Rand
	cancel   func()
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) {
		s.rng = r
	}
}

// WithRepeat sets the initial repeat mode.
func WithRepeat(m core.RepeatMode) Option {
	return func(s *Sequencer) {
		s.repeat = m
	}
}

// WithShuffle starts with shuffle enabled.
func WithShuffle(on bool) Option {
	return func(s *Sequencer) {
		s.shuffle = on
	}
}

// New creates a sequencer over p. The shuffle order is rebuilt whenever p
// changes while shuffle is on, so it always covers every current index.
func New(p *core.Playlist, opts ...Option) *Sequencer {
	s := &Sequencer{
		playlist: p,
		current:  core.NoIndex,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.shuffle {
		s.reshuffle()
	}
	s.cancel = p.Observe(s.onChange)
	return s
}

// Close detaches the sequencer from its playlist.
func (s *Sequencer) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Sequencer) onChange(c core.PlaylistChange) {
	if c.Kind == core.ChangeReset {
		s.Reset()
		return
	}
	if s.shuffle {
		s.reshuffle()
	}
}

// reshuffle builds a Fisher-Yates permutation of [0, n).
func (s *Sequencer) reshuffle() {
	n := s.playlist.Len()
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.order[i], s.order[j] = s.order[j], s.order[i]
	}
}

// Current returns the current index, or core.NoIndex.
func (s *Sequencer) Current() int {
	return s.current
}

// Shuffle reports whether shuffle is on.
func (s *Sequencer) Shuffle() bool {
	return s.shuffle
}

// Repeat returns the repeat mode.
func (s *Sequencer) Repeat() core.RepeatMode {
	return s.repeat
}

// LoadedSource returns the source last handed to the engine.
func (s *Sequencer) LoadedSource() core.Source {
	return s.loaded
}

// ToggleShuffle flips shuffle and returns the new setting. Turning it on
// draws a fresh order; turning it off discards it.
func (s *Sequencer) ToggleShuffle() bool {
	s.shuffle = !s.shuffle
	if s.shuffle {
		s.reshuffle()
	} else {
		s.order = nil
	}
	return s.shuffle
}

// CycleRepeat advances the repeat mode Off -> All -> One -> Off.
func (s *Sequencer) CycleRepeat() core.RepeatMode {
	s.repeat = s.repeat.Next()
	return s.repeat
}

// SetRepeat sets the repeat mode directly.
func (s *Sequencer) SetRepeat(m core.RepeatMode) {
	s.repeat = m
}

// NextIndex returns the index that follows the current one, or false when
// playback should stop.
func (s *Sequencer) NextIndex() (int, bool) {
	n := s.playlist.Len()
	if n == 0 {
		return core.NoIndex, false
	}

	if s.shuffle && len(s.order) > 0 {
		p := slices.Index(s.order, s.current)
		if p >= 0 && p < len(s.order)-1 {
			return s.order[p+1], true
		}
		if s.repeat == core.RepeatAll {
			return s.order[0], true
		}
		return core.NoIndex, false
	}

	if s.current < n-1 {
		return s.current + 1, true
	}
	if s.repeat == core.RepeatAll {
		return 0, true
	}
	return core.NoIndex, false
}

// PreviousIndex returns the entry before the current one in playlist order,
// wrapping from the first entry to the last. Shuffle and repeat do not
// apply.
func (s *Sequencer) PreviousIndex() (int, bool) {
	n := s.playlist.Len()
	if n == 0 {
		return core.NoIndex, false
	}
	current := max(s.current, 0)
	return (current - 1 + n) % n, true
}

// PlayAt makes index current and returns its entry. Out-of-range indices
// leave the state untouched.
func (s *Sequencer) PlayAt(index int) (core.Track, bool) {
	t, ok := s.playlist.Get(index)
	if !ok {
		return core.Track{}, false
	}
	s.current = index
	return t, true
}

// Loaded records the source the engine was told to play.
func (s *Sequencer) Loaded(src core.Source) {
	s.loaded = src
}

// OnEndOfStream decides what follows the natural end of src. Reports for
// anything but the loaded source are stale and ignored.
func (s *Sequencer) OnEndOfStream(src core.Source) Action {
	if src.IsZero() || src != s.loaded {
		return Action{Kind: ActionNone, Index: s.current}
	}
	if s.repeat == core.RepeatOne {
		return Action{Kind: ActionRestart, Index: s.current}
	}
	if next, ok := s.NextIndex(); ok {
		return Action{Kind: ActionPlay, Index: next}
	}
	return Action{Kind: ActionStop, Index: s.current}
}

// OnRemoved adjusts the current index after the playlist entry at index was
// removed. If the playing entry was removed and another now occupies its
// slot, that one should play.
func (s *Sequencer) OnRemoved(index int) Action {
	n := s.playlist.Len()
	switch {
	case s.current == core.NoIndex:
		return Action{Kind: ActionNone, Index: core.NoIndex}
	case index == s.current && index < n:
		return Action{Kind: ActionPlay, Index: index}
	case index < s.current:
		s.current--
	}
	if s.current > n-1 {
		s.current = n - 1
	}
	return Action{Kind: ActionNone, Index: s.current}
}

// Reset forgets the current entry and loaded source. The shuffle setting is
// kept; its order is rebuilt for the (now empty) playlist.
func (s *Sequencer) Reset() {
	s.current = core.NoIndex
	s.loaded = core.Source{}
	if s.shuffle {
		s.reshuffle()
	}
}

// Snapshot returns a copy of the sequencer state.
func (s *Sequencer) Snapshot() Snapshot {
	return Snapshot{
		Current: s.current,
		Shuffle: s.shuffle,
		Repeat:  s.repeat,
		Order:   slices.Clone(s.order),
	}
}

// SetOrder replaces the shuffle order. It is meant for restoring a saved
// order and for tests; it is ignored unless order is a permutation of the
// playlist indices.
func (s *Sequencer) SetOrder(order []int) bool {
	if !IsPermutation(order, s.playlist.Len()) {
		return false
	}
	s.order = slices.Clone(order)
	return true
}

// IsPermutation reports whether order holds every index in [0, n) once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}
