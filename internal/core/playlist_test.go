package core

import (
	"fmt"
	"testing"
	"time"
)

func makeTracks(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = NewTrack(fmt.Sprintf("/music/%02d.mp3", i), Track{})
	}
	return tracks
}

func TestPlaylistAppend(t *testing.T) {
	p := NewPlaylist()
	tracks := makeTracks(3)

	for i, tr := range tracks {
		if got := p.Append(tr); got != i {
			t.Errorf("Append() = %d, want %d", got, i)
		}
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestPlaylistAppendAllNotifiesOnce(t *testing.T) {
	p := NewPlaylist()
	p.Append(makeTracks(1)[0])

	var changes []PlaylistChange
	p.Observe(func(c PlaylistChange) { changes = append(changes, c) })

	first, last := p.AppendAll(makeTracks(4))
	if first != 1 || last != 4 {
		t.Errorf("AppendAll() = (%d, %d), want (1, 4)", first, last)
	}
	if len(changes) != 1 {
		t.Fatalf("observer called %d times, want 1", len(changes))
	}
	want := PlaylistChange{Kind: ChangeInserted, First: 1, Last: 4}
	if changes[0] != want {
		t.Errorf("change = %+v, want %+v", changes[0], want)
	}
}

func TestPlaylistAppendAllEmpty(t *testing.T) {
	p := NewPlaylist()
	calls := 0
	p.Observe(func(PlaylistChange) { calls++ })

	first, last := p.AppendAll(nil)
	if first != -1 || last != -1 {
		t.Errorf("AppendAll(nil) = (%d, %d), want (-1, -1)", first, last)
	}
	if calls != 0 {
		t.Errorf("observer called %d times, want 0", calls)
	}
}

func TestPlaylistRemoveAtPreservesOrder(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for i := 0; i < n; i++ {
			p := NewPlaylist()
			tracks := makeTracks(n)
			p.AppendAll(tracks)

			if !p.RemoveAt(i) {
				t.Fatalf("n=%d RemoveAt(%d) = false, want true", n, i)
			}
			if p.Len() != n-1 {
				t.Errorf("n=%d RemoveAt(%d) Len() = %d, want %d", n, i, p.Len(), n-1)
			}

			var want []Track
			want = append(want, tracks[:i]...)
			want = append(want, tracks[i+1:]...)
			got := p.Tracks()
			for k := range want {
				if got[k].Path != want[k].Path {
					t.Errorf("n=%d RemoveAt(%d) [%d] = %q, want %q", n, i, k, got[k].Path, want[k].Path)
				}
			}
		}
	}
}

func TestPlaylistRemoveAtOutOfRange(t *testing.T) {
	p := NewPlaylist()
	p.AppendAll(makeTracks(2))

	calls := 0
	p.Observe(func(PlaylistChange) { calls++ })

	for _, i := range []int{-1, 2, 100} {
		if p.RemoveAt(i) {
			t.Errorf("RemoveAt(%d) = true, want false", i)
		}
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if calls != 0 {
		t.Errorf("observer called %d times, want 0", calls)
	}
}

func TestPlaylistClear(t *testing.T) {
	p := NewPlaylist()
	p.AppendAll(makeTracks(3))

	var got PlaylistChange
	p.Observe(func(c PlaylistChange) { got = c })
	p.Clear()

	if !p.IsEmpty() {
		t.Errorf("Len() = %d after Clear, want 0", p.Len())
	}
	if got.Kind != ChangeReset {
		t.Errorf("change kind = %v, want %v", got.Kind, ChangeReset)
	}

	// Clearing an empty playlist is fine too.
	p.Clear()
}

func TestPlaylistGetOutOfRange(t *testing.T) {
	p := NewPlaylist()
	if tr, ok := p.Get(0); ok || !tr.IsZero() {
		t.Errorf("Get(0) on empty = (%+v, %v), want zero, false", tr, ok)
	}
	if got := p.PathAt(-1); got != "" {
		t.Errorf("PathAt(-1) = %q, want empty", got)
	}

	p.Append(NewTrack("/a.mp3", Track{}))
	if got := p.PathAt(0); got != "/a.mp3" {
		t.Errorf("PathAt(0) = %q, want %q", got, "/a.mp3")
	}
	if got := p.PathAt(1); got != "" {
		t.Errorf("PathAt(1) = %q, want empty", got)
	}
}

func TestPlaylistObserveCancel(t *testing.T) {
	p := NewPlaylist()
	calls := 0
	cancel := p.Observe(func(PlaylistChange) { calls++ })

	p.Append(NewTrack("/a.mp3", Track{}))
	cancel()
	p.Append(NewTrack("/b.mp3", Track{}))

	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
}

func TestPlaylistTracksIsCopy(t *testing.T) {
	p := NewPlaylist()
	p.Append(NewTrack("/a.mp3", Track{}))

	tracks := p.Tracks()
	tracks[0].Title = "changed"

	got, _ := p.Get(0)
	if got.Title != "a" {
		t.Errorf("Title = %q, want %q", got.Title, "a")
	}
}

func TestPlaylistTotalDuration(t *testing.T) {
	p := NewPlaylist()
	p.Append(NewTrack("/a.mp3", Track{Duration: 90 * time.Second}))
	p.Append(NewTrack("/b.mp3", Track{Duration: 30 * time.Second}))

	if got := p.TotalDuration(); got != 2*time.Minute {
		t.Errorf("TotalDuration() = %v, want %v", got, 2*time.Minute)
	}
}
