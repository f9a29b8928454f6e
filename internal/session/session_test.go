package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/settings"
)

type fakeEngine struct {
	mu      sync.Mutex
	loads   []core.Source
	calls   []string
	volume  float64
	failExt string
	events  chan core.EngineEvent
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan core.EngineEvent, 16)}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Load(ctx context.Context, src core.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExt != "" && strings.HasSuffix(src.Path, f.failExt) {
		return errors.New("unsupported audio format")
	}
	f.loads = append(f.loads, src)
	f.calls = append(f.calls, "load")
	return nil
}

func (f *fakeEngine) Play(ctx context.Context) error  { f.record("play"); return nil }
func (f *fakeEngine) Pause(ctx context.Context) error { f.record("pause"); return nil }
func (f *fakeEngine) Stop(ctx context.Context) error  { f.record("stop"); return nil }

func (f *fakeEngine) Seek(ctx context.Context, positionMs int64) error {
	f.record("seek")
	return nil
}

func (f *fakeEngine) SetVolume(ctx context.Context, level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = level
	return nil
}

func (f *fakeEngine) Events() <-chan core.EngineEvent { return f.events }
func (f *fakeEngine) Close() error                    { return nil }

func (f *fakeEngine) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeEngine) lastSource() core.Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loads) == 0 {
		return core.Source{}
	}
	return f.loads[len(f.loads)-1]
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(path string) core.Track {
	return core.NewTrack(path, core.Track{Artist: "Band", Duration: time.Minute})
}

type harness struct {
	s      *Session
	engine *fakeEngine
	store  *settings.Memory
	dir    string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	dir := t.TempDir()
	engine := newFakeEngine()
	store := settings.NewMemory()

	if opts.Root == "" {
		opts.Root = dir
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(7, 11))
	}
	s := New(Deps{Engine: engine, Extractor: fakeExtractor{}, Settings: store}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return &harness{s: s, engine: engine, store: store, dir: dir}
}

func (h *harness) files(t *testing.T, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(h.dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(paths[i]), 0o755))
		require.NoError(t, os.WriteFile(paths[i], []byte("x"), 0o644))
	}
	return paths
}

func (h *harness) addTracks(t *testing.T, n int) {
	t.Helper()
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('a'+i)) + ".mp3"
	}
	res, err := h.s.Add(context.Background(), h.files(t, names...))
	require.NoError(t, err)
	require.False(t, res.HasErrors(), res.ErrorSummary())
}

func (h *harness) status(t *testing.T) *core.PlaybackState {
	t.Helper()
	st, err := h.s.Status(context.Background())
	require.NoError(t, err)
	return st
}

func (h *harness) endOfStream(t *testing.T, src core.Source) {
	t.Helper()
	h.engine.events <- core.EngineEvent{Type: core.EngineEndOfStream, Source: src}
}

var ctx = context.Background()

func TestEmptyPlaylistIsNoop(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.s.Play(ctx))
	require.NoError(t, h.s.Next(ctx))
	require.NoError(t, h.s.Previous(ctx))

	assert.Zero(t, h.engine.loadCount())
	st := h.status(t)
	assert.Equal(t, core.StateStopped, st.State)
	assert.Equal(t, core.NoIndex, st.Index)
	assert.Equal(t, "No tracks in playlist", st.Message)
}

func TestAddReportsSkippedPaths(t *testing.T) {
	h := newHarness(t, Options{})
	paths := h.files(t, "one.mp3", "cover.jpg", "two.FLAC")
	paths = append(paths, filepath.Join(h.dir, "missing.mp3"), h.dir)

	res, err := h.s.Add(ctx, paths)
	require.NoError(t, err)

	require.Len(t, res.Data, 2)
	assert.Equal(t, "one", res.Data[0].Title)
	assert.Equal(t, "two", res.Data[1].Title)
	assert.Len(t, res.Errors, 3)
	assert.ErrorIs(t, res.Errors[0], ErrNotAudio)

	view, err := h.s.Tracks(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Tracks, 2)
	assert.Equal(t, "Loaded 2 tracks", h.status(t).Message)
}

func TestAddSingleTrackStatus(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.s.Add(ctx, h.files(t, "solo.ogg"))
	require.NoError(t, err)
	assert.Equal(t, "Added: solo.ogg", h.status(t).Message)
}

func TestAddDirectory(t *testing.T) {
	h := newHarness(t, Options{})
	h.files(t, "album/01.mp3", "album/02.mp3", "album/cd2/03.mp3", "album/notes.txt")

	res, err := h.s.AddDirectory(ctx, filepath.Join(h.dir, "album"), false)
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	for _, track := range res.Data {
		assert.Equal(t, filepath.Join(h.dir, "album"), filepath.Dir(track.Path))
	}

	res, err = h.s.AddDirectory(ctx, filepath.Join(h.dir, "album"), true)
	require.NoError(t, err)
	assert.Len(t, res.Data, 3)
}

func TestPlayStartsAtFirstTrack(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 3)

	require.NoError(t, h.s.Play(ctx))
	st := h.status(t)
	assert.Equal(t, core.StatePlaying, st.State)
	assert.Equal(t, 0, st.Index)
	require.NotNil(t, st.Track)
	assert.Equal(t, "Now Playing: Band - a", st.Message)

	// Play while playing does nothing.
	require.NoError(t, h.s.Play(ctx))
	assert.Equal(t, 1, h.engine.loadCount())
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 2)
	require.NoError(t, h.s.Play(ctx))

	require.NoError(t, h.s.TogglePause(ctx))
	assert.Equal(t, core.StatePaused, h.status(t).State)

	require.NoError(t, h.s.Play(ctx))
	assert.Equal(t, core.StatePlaying, h.status(t).State)
	assert.Equal(t, 1, h.engine.loadCount(), "resume must not reload")

	require.NoError(t, h.s.Stop(ctx))
	assert.Equal(t, core.StateStopped, h.status(t).State)
}

func TestNextAndPrevious(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 3)
	require.NoError(t, h.s.Play(ctx))

	require.NoError(t, h.s.Previous(ctx))
	assert.Equal(t, 2, h.status(t).Index)

	// End of playlist with repeat off: next does nothing.
	require.NoError(t, h.s.Next(ctx))
	assert.Equal(t, 2, h.status(t).Index)

	require.NoError(t, h.s.SetRepeat(ctx, core.RepeatAll))
	require.NoError(t, h.s.Next(ctx))
	assert.Equal(t, 0, h.status(t).Index)
}

func TestPlayAtOutOfRange(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 2)

	ok, err := h.s.PlayAt(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.engine.loadCount())

	ok, err = h.s.PlayAt(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, h.status(t).Index)
}

func TestEndOfStreamAdvances(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 2)
	require.NoError(t, h.s.Play(ctx))

	h.endOfStream(t, h.engine.lastSource())
	require.Eventually(t, func() bool { return h.engine.loadCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.status(t).Index)

	h.endOfStream(t, h.engine.lastSource())
	require.Eventually(t, func() bool { return h.status(t).State == core.StateStopped }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.status(t).Index)
	assert.Equal(t, 2, h.engine.loadCount())
}

func TestStaleEndOfStreamIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 3)
	require.NoError(t, h.s.Play(ctx))
	stale := h.engine.lastSource()

	require.NoError(t, h.s.Next(ctx))
	h.endOfStream(t, stale)

	// A round trip through the loop guarantees the event was handled.
	time.Sleep(20 * time.Millisecond)
	st := h.status(t)
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 2, h.engine.loadCount())
}

func TestRepeatOneReplays(t *testing.T) {
	h := newHarness(t, Options{Repeat: core.RepeatOne, Shuffle: true})
	h.addTracks(t, 3)
	ok, err := h.s.PlayAt(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	for i := 2; i <= 4; i++ {
		h.endOfStream(t, h.engine.lastSource())
		require.Eventually(t, func() bool { return h.engine.loadCount() == i }, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, h.status(t).Index)
	}
}

func TestShuffleAndRepeatModes(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 4)

	on, err := h.s.ToggleShuffle(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	snap, err := h.s.Sequence(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, snap.Order)

	mode, err := h.s.CycleRepeat(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RepeatAll, mode)

	st := h.status(t)
	assert.True(t, st.Shuffle)
	assert.Equal(t, core.RepeatAll, st.Repeat)
}

func TestRemovePlayingTrack(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 3)
	_, err := h.s.PlayAt(ctx, 1)
	require.NoError(t, err)

	ok, err := h.s.Remove(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	st := h.status(t)
	assert.Equal(t, 1, st.Index)
	require.NotNil(t, st.Track)
	assert.Equal(t, "c", st.Track.Title)
	assert.Equal(t, 2, h.engine.loadCount())

	ok, err = h.s.Remove(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveLastPlayingTrackClamps(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 2)
	_, err := h.s.PlayAt(ctx, 1)
	require.NoError(t, err)

	_, err = h.s.Remove(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, h.status(t).Index)
	assert.Equal(t, 1, h.engine.loadCount(), "clamping must not auto-play")
}

func TestClear(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 2)
	require.NoError(t, h.s.Play(ctx))

	require.NoError(t, h.s.Clear(ctx))
	st := h.status(t)
	assert.Equal(t, core.StateStopped, st.State)
	assert.Equal(t, 0, st.PlaylistSize)
	assert.Equal(t, core.NoIndex, st.Index)
	assert.Nil(t, st.Track)
	assert.Equal(t, "Playlist cleared", st.Message)

	h.addTracks(t, 1)
	require.NoError(t, h.s.Play(ctx))
	assert.Equal(t, 0, h.status(t).Index)
}

func TestLoadFailureBecomesStatus(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.failExt = ".m4a"
	_, err := h.s.Add(ctx, h.files(t, "song.m4a"))
	require.NoError(t, err)

	require.NoError(t, h.s.Play(ctx))
	st := h.status(t)
	assert.Equal(t, core.StateStopped, st.State)
	assert.Contains(t, st.Message, "Cannot play song.m4a")
}

func TestVolumePersisted(t *testing.T) {
	h := newHarness(t, Options{Volume: 80})
	assert.Equal(t, 80, h.status(t).Volume)

	v, err := h.s.SetVolume(ctx, 140)
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	v, err = h.s.SetVolume(ctx, 35)
	require.NoError(t, err)
	assert.Equal(t, 35, v)
	assert.Equal(t, "35", h.store.Get(core.SettingVolume, ""))

	h.engine.mu.Lock()
	assert.InDelta(t, 0.35, h.engine.volume, 0.001)
	h.engine.mu.Unlock()
}

func TestPositionEvents(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 1)
	require.NoError(t, h.s.Play(ctx))
	src := h.engine.lastSource()

	h.engine.events <- core.EngineEvent{Type: core.EnginePosition, Source: src, Position: 12 * time.Second}
	require.Eventually(t, func() bool { return h.status(t).Progress == 12*time.Second }, time.Second, 5*time.Millisecond)

	h.engine.events <- core.EngineEvent{Type: core.EnginePosition, Source: core.NewSource(src.Path), Position: 40 * time.Second}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 12*time.Second, h.status(t).Progress)

	require.NoError(t, h.s.Seek(ctx, 30*time.Second))
	assert.Equal(t, 30*time.Second, h.status(t).Progress)
}

func TestNavigation(t *testing.T) {
	h := newHarness(t, Options{CheckDirs: true})
	h.files(t, "rock/a.mp3", "rock/live/b.mp3", "jazz/c.flac")

	l, err := h.s.Navigate(ctx, filepath.Join(h.dir, "rock"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "rock"), l.Path)
	require.Len(t, l.Entries, 2)
	assert.Equal(t, "live", l.Entries[0].Name)
	assert.True(t, l.CanBack)
	assert.False(t, l.CanForward)
	assert.Equal(t, filepath.Join(h.dir, "rock"), h.store.Get(core.SettingLastVisited, ""))

	l, err = h.s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.dir, l.Path)
	assert.True(t, l.CanForward)

	l, err = h.s.Navigate(ctx, filepath.Join(h.dir, "jazz"))
	require.NoError(t, err)
	assert.False(t, l.CanForward)

	l, err = h.s.Forward(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "jazz"), l.Path)

	l, err = h.s.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.dir, l.Path)

	l, err = h.s.Navigate(ctx, filepath.Join(h.dir, "nowhere"))
	require.NoError(t, err)
	assert.Equal(t, h.dir, l.Path, "missing directories fall back to the root")
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t, Options{})
	events, cancel := h.s.Subscribe()
	defer cancel()

	h.addTracks(t, 1)
	require.NoError(t, h.s.Play(ctx))

	seen := map[EventType]bool{}
	timeout := time.After(time.Second)
	for !seen[EventTrackChanged] {
		select {
		case e := <-events:
			seen[e.Type] = true
		case <-timeout:
			t.Fatalf("no track_changed event, saw %v", seen)
		}
	}
	assert.True(t, seen[EventPlaylistChanged])
}

// nextEvent waits for the first event of type typ.
func nextEvent(t *testing.T, events <-chan Event, typ EventType) Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event", typ)
			return Event{}
		}
	}
}

func TestClearEventReportsNoCurrentTrack(t *testing.T) {
	for range 20 {
		h := newHarness(t, Options{})
		h.addTracks(t, 3)
		ok, err := h.s.PlayAt(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)

		events, cancel := h.s.Subscribe()
		require.NoError(t, h.s.Clear(ctx))

		e := nextEvent(t, events, EventPlaylistChanged)
		cancel()
		require.NotNil(t, e.Change)
		assert.Equal(t, core.ChangeReset, e.Change.Kind)
		require.NotNil(t, e.State)
		assert.Equal(t, core.NoIndex, e.State.Index)
		assert.Equal(t, 0, e.State.PlaylistSize)
	}
}

func TestRemoveBelowCurrentReportsAdjustedIndex(t *testing.T) {
	h := newHarness(t, Options{})
	h.addTracks(t, 3)
	_, err := h.s.PlayAt(ctx, 2)
	require.NoError(t, err)

	events, cancel := h.s.Subscribe()
	defer cancel()
	ok, err := h.s.Remove(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)

	e := nextEvent(t, events, EventStateChanged)
	require.NotNil(t, e.State)
	assert.Equal(t, 1, e.State.Index)
	assert.Equal(t, 2, e.State.PlaylistSize)
}

func TestClosedSession(t *testing.T) {
	s := New(Deps{Engine: newFakeEngine()}, Options{Root: t.TempDir()})
	runCtx, cancel := context.WithCancel(context.Background())
	go s.Run(runCtx)
	cancel()
	<-s.Done()

	_, err := s.Status(ctx)
	assert.Error(t, err)
}
