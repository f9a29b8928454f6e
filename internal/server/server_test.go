package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/settings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	mu     sync.Mutex
	loads  []core.Source
	events chan core.EngineEvent
}

func (f *fakeEngine) Load(ctx context.Context, src core.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, src)
	return nil
}

func (f *fakeEngine) Play(ctx context.Context) error                     { return nil }
func (f *fakeEngine) Pause(ctx context.Context) error                    { return nil }
func (f *fakeEngine) Stop(ctx context.Context) error                     { return nil }
func (f *fakeEngine) Seek(ctx context.Context, positionMs int64) error   { return nil }
func (f *fakeEngine) SetVolume(ctx context.Context, level float64) error { return nil }
func (f *fakeEngine) Events() <-chan core.EngineEvent                    { return f.events }
func (f *fakeEngine) Close() error                                       { return nil }

type fakeExtractor struct{}

func (fakeExtractor) Extract(path string) core.Track {
	return core.NewTrack(path, core.Track{Artist: "Band", Duration: time.Minute})
}

type testEnv struct {
	server *Server
	dir    string
}

func newTestEnv(t *testing.T, origins ...string) *testEnv {
	t.Helper()
	dir := t.TempDir()

	s := session.New(session.Deps{
		Engine:    &fakeEngine{events: make(chan core.EngineEvent, 4)},
		Extractor: fakeExtractor{},
		Settings:  settings.NewMemory(),
	}, session.Options{Root: dir, Volume: 50, Rand: rand.New(rand.NewPCG(1, 2))})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	srv := New(s, Options{Version: "test", CORSOrigins: origins})
	srv.Start(ctx)

	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return &testEnv{server: srv, dir: dir}
}

func (e *testEnv) files(t *testing.T, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(e.dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(paths[i]), 0o755))
		require.NoError(t, os.WriteFile(paths[i], []byte("x"), 0o644))
	}
	return paths
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) core.PlaybackState {
	t.Helper()
	var st core.PlaybackState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func (e *testEnv) addTracks(t *testing.T, names ...string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/playlist", AddRequest{Paths: e.files(t, names...)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestStatusEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	st := decodeStatus(t, w)
	assert.Equal(t, core.StateStopped, st.State)
	assert.Equal(t, core.NoIndex, st.Index)
	assert.Equal(t, 50, st.Volume)
	assert.Nil(t, st.Track)
}

func TestAddToPlaylist(t *testing.T) {
	env := newTestEnv(t)
	paths := env.files(t, "a.mp3", "b.flac", "notes.txt")

	w := env.do(t, http.MethodPost, "/api/playlist", AddRequest{Paths: paths})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AddResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Added)
	assert.Len(t, resp.Errors, 1)
	assert.Equal(t, "a", resp.Tracks[0].Title)
	assert.Equal(t, "Band", resp.Tracks[0].Artist)
}

func TestAddDirectory(t *testing.T) {
	env := newTestEnv(t)
	env.files(t, "album/02.mp3", "album/01.mp3", "album/disc2/03.mp3")

	w := env.do(t, http.MethodPost, "/api/playlist", AddRequest{
		Paths:     []string{filepath.Join(env.dir, "album")},
		Recursive: true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AddResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Added)
}

func TestAddRejectsEmptyBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/playlist", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddNothingUsable(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/playlist", AddRequest{
		Paths: []string{filepath.Join(env.dir, "missing.mp3")},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPlaylistETag(t *testing.T) {
	env := newTestEnv(t)
	env.addTracks(t, "a.mp3", "b.mp3")

	first := env.do(t, http.MethodGet, "/api/playlist", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var view session.PlaylistView
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &view))
	assert.Len(t, view.Tracks, 2)

	cached := env.do(t, http.MethodGet, "/api/playlist", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	env.addTracks(t, "c.mp3")
	changed := env.do(t, http.MethodGet, "/api/playlist", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, changed.Code)
	assert.NotEqual(t, etag, changed.Header().Get("ETag"))
}

func TestPlayerCommands(t *testing.T) {
	env := newTestEnv(t)
	env.addTracks(t, "a.mp3", "b.mp3", "c.mp3")

	st := decodeStatus(t, env.do(t, http.MethodPost, "/api/player/play", nil))
	assert.Equal(t, core.StatePlaying, st.State)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, "Now Playing: Band - a", st.Message)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/next", nil))
	assert.Equal(t, 1, st.Index)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/toggle", nil))
	assert.Equal(t, core.StatePaused, st.State)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/previous", nil))
	assert.Equal(t, 0, st.Index)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/previous", nil))
	assert.Equal(t, 2, st.Index, "previous wraps to the end")

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/stop", nil))
	assert.Equal(t, core.StateStopped, st.State)
}

func TestPlayAt(t *testing.T) {
	env := newTestEnv(t)
	env.addTracks(t, "a.mp3", "b.mp3")

	w := env.do(t, http.MethodPost, "/api/player/play/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeStatus(t, w).Index)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/player/play/7", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/player/play/x", nil).Code)
}

func TestModes(t *testing.T) {
	env := newTestEnv(t)

	st := decodeStatus(t, env.do(t, http.MethodPost, "/api/player/shuffle", nil))
	assert.True(t, st.Shuffle)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/repeat", nil))
	assert.Equal(t, core.RepeatAll, st.Repeat)

	st = decodeStatus(t, env.do(t, http.MethodPost, "/api/player/repeat", RepeatRequest{Mode: "one"}))
	assert.Equal(t, core.RepeatOne, st.Repeat)

	w := env.do(t, http.MethodPost, "/api/player/repeat", RepeatRequest{Mode: "sometimes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeekAndVolume(t *testing.T) {
	env := newTestEnv(t)
	env.addTracks(t, "a.mp3")
	env.do(t, http.MethodPost, "/api/player/play", nil)

	pos := int64(1500)
	w := env.do(t, http.MethodPost, "/api/player/seek", SeekRequest{PositionMs: &pos})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/player/seek", map[string]any{}).Code)

	vol := 120
	st := decodeStatus(t, env.do(t, http.MethodPost, "/api/player/volume", VolumeRequest{Volume: &vol}))
	assert.Equal(t, 100, st.Volume)
}

func TestRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)
	env.addTracks(t, "a.mp3", "b.mp3")

	w := env.do(t, http.MethodDelete, "/api/playlist/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeStatus(t, w).PlaylistSize)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/playlist/5", nil).Code)

	w = env.do(t, http.MethodDelete, "/api/playlist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeStatus(t, w)
	assert.Equal(t, 0, st.PlaylistSize)
	assert.Equal(t, "Playlist cleared", st.Message)
}

func TestBrowse(t *testing.T) {
	env := newTestEnv(t)
	env.files(t, "music/song.mp3", "cover.jpg")

	w := env.do(t, http.MethodGet, "/api/browse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var l session.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, env.dir, l.Path)
	require.Len(t, l.Entries, 2)
	assert.True(t, l.Entries[0].IsDir, "directories sort first")

	music := filepath.Join(env.dir, "music")
	w = env.do(t, http.MethodPost, "/api/browse/navigate", NavigateRequest{Path: music})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, music, l.Path)
	assert.True(t, l.CanBack)

	w = env.do(t, http.MethodPost, "/api/browse/back", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, env.dir, l.Path)
	assert.True(t, l.CanForward)

	w = env.do(t, http.MethodPost, "/api/browse/forward", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, music, l.Path)

	w = env.do(t, http.MethodPost, "/api/browse/up", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, env.dir, l.Path)
	assert.False(t, l.CanForward, "up discards forward history")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, "http://localhost:5173")

	w := env.do(t, http.MethodGet, "/api/status", nil, "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(t, http.MethodGet, "/api/status", nil, "Origin", "http://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketEvents(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan session.Event, 16)
	go func() {
		for {
			var e session.Event
			if err := conn.ReadJSON(&e); err != nil {
				close(received)
				return
			}
			received <- e
		}
	}()

	// The client registers with the hub after the handshake completes, so
	// keep producing events until one arrives.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case e, ok := <-received:
			require.True(t, ok, "connection closed before an event arrived")
			assert.Equal(t, session.EventModeChanged, e.Type)
			require.NotNil(t, e.State)
			return
		case <-ticker.C:
			env.do(t, http.MethodPost, "/api/player/shuffle", nil)
		case <-deadline:
			t.Fatal("no websocket event received")
		}
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, "http://localhost:5173")
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
