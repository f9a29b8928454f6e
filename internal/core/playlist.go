package core

import (
	"slices"
	"time"
)

// ChangeKind describes how a playlist was mutated.
type ChangeKind int

const (
	ChangeInserted ChangeKind = iota
	ChangeRemoved
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeRemoved:
		return "removed"
	default:
		return "reset"
	}
}

// PlaylistChange reports a contiguous range of rows that changed.
// First and Last are inclusive; both are -1 for ChangeReset.
type PlaylistChange struct {
	Kind  ChangeKind
	First int
	Last  int
}

// Playlist is an ordered list of tracks. Indices are always contiguous:
// removing a track shifts every later track down by one.
//
// A Playlist is not safe for concurrent use; the session loop owns it.
type Playlist struct {
	tracks    []Track
	observers []observer
	nextObs   int
}

type observer struct {
	id int
	fn func(PlaylistChange)
}

// NewPlaylist creates an empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Observe registers fn to be called after every mutation. Observers run in
// registration order, so a later observer sees the effects of earlier ones.
// The returned function removes the observer.
func (p *Playlist) Observe(fn func(PlaylistChange)) (cancel func()) {
	id := p.nextObs
	p.nextObs++
	p.observers = append(p.observers, observer{id: id, fn: fn})
	return func() {
		p.observers = slices.DeleteFunc(p.observers, func(o observer) bool { return o.id == id })
	}
}

func (p *Playlist) notify(c PlaylistChange) {
	for _, o := range p.observers {
		o.fn(c)
	}
}

// Append adds t at the end and returns its index.
func (p *Playlist) Append(t Track) int {
	index := len(p.tracks)
	p.tracks = append(p.tracks, t)
	p.notify(PlaylistChange{Kind: ChangeInserted, First: index, Last: index})
	return index
}

// AppendAll adds tracks as one contiguous block, preserving their order.
// Observers are notified once for the whole range. It returns the first and
// last index of the block, or (-1, -1) when tracks is empty.
func (p *Playlist) AppendAll(tracks []Track) (first, last int) {
	if len(tracks) == 0 {
		return -1, -1
	}
	first = len(p.tracks)
	p.tracks = append(p.tracks, tracks...)
	last = len(p.tracks) - 1
	p.notify(PlaylistChange{Kind: ChangeInserted, First: first, Last: last})
	return first, last
}

// RemoveAt deletes the track at index. Out-of-range indices are ignored and
// reported with false.
func (p *Playlist) RemoveAt(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	p.notify(PlaylistChange{Kind: ChangeRemoved, First: index, Last: index})
	return true
}

// Clear removes every track.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
	p.notify(PlaylistChange{Kind: ChangeReset, First: -1, Last: -1})
}

// Get returns the track at index, or the zero Track and false when index is
// out of range.
func (p *Playlist) Get(index int) (Track, bool) {
	if index < 0 || index >= len(p.tracks) {
		return Track{}, false
	}
	return p.tracks[index], true
}

// PathAt returns the file path at index, or "" when out of range.
func (p *Playlist) PathAt(index int) string {
	t, _ := p.Get(index)
	return t.Path
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// Tracks returns a copy of all tracks in play order.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// TotalDuration sums the durations of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.tracks {
		total += t.Duration
	}
	return total
}
