package session

import (
	"sync"
	"time"

	"github.com/tessro/spindle/internal/core"
)

// EventType names a session event.
type EventType string

const (
	EventTrackChanged     EventType = "track_changed"
	EventStateChanged     EventType = "state_changed"
	EventPlaylistChanged  EventType = "playlist_changed"
	EventModeChanged      EventType = "mode_changed"
	EventPosition         EventType = "position"
	EventVolume           EventType = "volume_changed"
	EventStatus           EventType = "status"
	EventDirectoryChanged EventType = "directory_changed"
)

// Event is broadcast to subscribers after the session state changes.
type Event struct {
	Type      EventType            `json:"type"`
	Time      time.Time            `json:"time"`
	State     *core.PlaybackState  `json:"state,omitempty"`
	Change    *core.PlaylistChange `json:"change,omitempty"`
	Directory string               `json:"directory,omitempty"`
	Message   string               `json:"message,omitempty"`
}

const subscriberBuffer = 64

// broadcaster fans events out to subscribers. Slow subscribers lose events
// rather than stall the session loop.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
