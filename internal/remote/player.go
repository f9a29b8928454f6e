package remote

import (
	"context"
	"time"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/sequencer"
	"github.com/tessro/spindle/internal/server"
	"github.com/tessro/spindle/internal/session"
)

// Health reports the daemon version when it answers.
func (c *Client) Health(ctx context.Context) (string, error) {
	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := c.Get(ctx, "/health", &body); err != nil {
		return "", err
	}
	return body.Version, nil
}

// Status returns the daemon's playback state.
func (c *Client) Status(ctx context.Context) (*core.PlaybackState, error) {
	var st core.PlaybackState
	if err := c.Get(ctx, "/api/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetState is Status under the name the tail watcher polls.
func (c *Client) GetState(ctx context.Context) (*core.PlaybackState, error) {
	return c.Status(ctx)
}

// Sequence returns the daemon's sequencer snapshot.
func (c *Client) Sequence(ctx context.Context) (sequencer.Snapshot, error) {
	var snap sequencer.Snapshot
	err := c.Get(ctx, "/api/sequence", &snap)
	return snap, err
}

func (c *Client) command(ctx context.Context, path string, body any) (*core.PlaybackState, error) {
	var st core.PlaybackState
	if err := c.Post(ctx, path, body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/play", nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/pause", nil)
}

// TogglePause pauses or resumes.
func (c *Client) TogglePause(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/toggle", nil)
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/stop", nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/next", nil)
}

// Previous goes back one track.
func (c *Client) Previous(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/previous", nil)
}

// PlayAt plays the playlist entry at index.
func (c *Client) PlayAt(ctx context.Context, index int) (*core.PlaybackState, error) {
	return c.command(ctx, indexPath("/api/player/play", index), nil)
}

// ToggleShuffle flips shuffle.
func (c *Client) ToggleShuffle(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/shuffle", nil)
}

// CycleRepeat advances the repeat mode.
func (c *Client) CycleRepeat(ctx context.Context) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/repeat", nil)
}

// SetRepeat sets the repeat mode.
func (c *Client) SetRepeat(ctx context.Context, mode core.RepeatMode) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/repeat", server.RepeatRequest{Mode: mode.String()})
}

// Seek moves the playback position.
func (c *Client) Seek(ctx context.Context, position time.Duration) (*core.PlaybackState, error) {
	ms := position.Milliseconds()
	return c.command(ctx, "/api/player/seek", server.SeekRequest{PositionMs: &ms})
}

// SetVolume sets the volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int) (*core.PlaybackState, error) {
	return c.command(ctx, "/api/player/volume", server.VolumeRequest{Volume: &percent})
}

// Playlist returns the daemon's playlist.
func (c *Client) Playlist(ctx context.Context) (session.PlaylistView, error) {
	var view session.PlaylistView
	err := c.Get(ctx, "/api/playlist", &view)
	return view, err
}

// Add appends files or directories to the playlist. Paths are sent as
// given, so they must be meaningful to the daemon.
func (c *Client) Add(ctx context.Context, paths []string, recursive bool) (*server.AddResponse, error) {
	var resp server.AddResponse
	err := c.Post(ctx, "/api/playlist", server.AddRequest{Paths: paths, Recursive: recursive}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove deletes the playlist entry at index.
func (c *Client) Remove(ctx context.Context, index int) (*core.PlaybackState, error) {
	var st core.PlaybackState
	if err := c.Delete(ctx, indexPath("/api/playlist", index), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Clear empties the playlist.
func (c *Client) Clear(ctx context.Context) (*core.PlaybackState, error) {
	var st core.PlaybackState
	if err := c.Delete(ctx, "/api/playlist", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) listing(ctx context.Context, path string, body any) (session.Listing, error) {
	var l session.Listing
	var err error
	if path == "/api/browse" {
		err = c.Get(ctx, path, &l)
	} else {
		err = c.Post(ctx, path, body, &l)
	}
	return l, err
}

// Listing returns the daemon's current directory.
func (c *Client) Listing(ctx context.Context) (session.Listing, error) {
	return c.listing(ctx, "/api/browse", nil)
}

// Navigate enters path.
func (c *Client) Navigate(ctx context.Context, path string) (session.Listing, error) {
	return c.listing(ctx, "/api/browse/navigate", server.NavigateRequest{Path: path})
}

// Back moves back in directory history.
func (c *Client) Back(ctx context.Context) (session.Listing, error) {
	return c.listing(ctx, "/api/browse/back", nil)
}

// Forward moves forward in directory history.
func (c *Client) Forward(ctx context.Context) (session.Listing, error) {
	return c.listing(ctx, "/api/browse/forward", nil)
}

// Up enters the parent directory.
func (c *Client) Up(ctx context.Context) (session.Listing, error) {
	return c.listing(ctx, "/api/browse/up", nil)
}
