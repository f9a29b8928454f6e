package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/session"
)

type handlers struct {
	player  Player
	version string
}

// AddRequest is the body of POST /api/playlist.
type AddRequest struct {
	Paths     []string `json:"paths" binding:"required,min=1"`
	Recursive bool     `json:"recursive"`
}

// AddResponse reports what was added.
type AddResponse struct {
	Added  int          `json:"added"`
	Tracks []core.Track `json:"tracks"`
	Errors []string     `json:"errors,omitempty"`
}

// SeekRequest is the body of POST /api/player/seek.
type SeekRequest struct {
	PositionMs *int64 `json:"position_ms" binding:"required"`
}

// VolumeRequest is the body of POST /api/player/volume.
type VolumeRequest struct {
	Volume *int `json:"volume" binding:"required"`
}

// RepeatRequest is the optional body of POST /api/player/repeat. Without a
// mode the repeat mode cycles.
type RepeatRequest struct {
	Mode string `json:"mode"`
}

// NavigateRequest is the body of POST /api/browse/navigate.
type NavigateRequest struct {
	Path string `json:"path" binding:"required"`
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, spindleerrors.ErrSessionClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	case errors.Is(err, spindleerrors.ErrInvalidIndex):
		status = http.StatusNotFound
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	}
	body := gin.H{"error": err.Error()}
	if suggestion := spindleerrors.GetSuggestion(err); suggestion != "" {
		body["suggestion"] = suggestion
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request",
		"details": err.Error(),
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "spindle",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	})
}

func (h *handlers) status(c *gin.Context) {
	st, err := h.player.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) sequence(c *gin.Context) {
	snap, err := h.player.Sequence(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// PlaylistETag returns the entity tag for a playlist view.
func PlaylistETag(view session.PlaylistView) (string, error) {
	hash, err := hashstructure.Hash(view, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return `"` + strconv.FormatUint(hash, 16) + `"`, nil
}

func (h *handlers) playlist(c *gin.Context) {
	view, err := h.player.Tracks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	etag, err := PlaylistETag(view)
	if err == nil {
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) addToPlaylist(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	resp := AddResponse{Tracks: []core.Track{}}
	for _, p := range req.Paths {
		var (
			res *spindleerrors.PartialResult[[]core.Track]
			err error
		)
		if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
			res, err = h.player.AddDirectory(ctx, p, req.Recursive)
		} else {
			res, err = h.player.Add(ctx, []string{p})
		}
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Tracks = append(resp.Tracks, res.Data...)
		for _, e := range res.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	resp.Added = len(resp.Tracks)

	status := http.StatusOK
	if resp.Added == 0 && len(resp.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return index, true
}

func (h *handlers) removeFromPlaylist(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	removed, err := h.player.Remove(c.Request.Context(), index)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		respondError(c, spindleerrors.ErrInvalidIndex)
		return
	}
	h.status(c)
}

func (h *handlers) clearPlaylist(c *gin.Context) {
	if err := h.player.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.status(c)
}

// command adapts a no-argument player operation to a handler that replies
// with the resulting status.
func (h *handlers) command(fn func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		h.status(c)
	}
}

func (h *handlers) playAt(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	played, err := h.player.PlayAt(c.Request.Context(), index)
	if err != nil {
		respondError(c, err)
		return
	}
	if !played {
		respondError(c, spindleerrors.ErrInvalidIndex)
		return
	}
	h.status(c)
}

func (h *handlers) shuffle(c *gin.Context) {
	if _, err := h.player.ToggleShuffle(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.status(c)
}

func (h *handlers) repeat(c *gin.Context) {
	var req RepeatRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if req.Mode == "" {
		if _, err := h.player.CycleRepeat(ctx); err != nil {
			respondError(c, err)
			return
		}
	} else {
		mode, err := core.ParseRepeatMode(req.Mode)
		if err != nil {
			badRequest(c, err)
			return
		}
		if err := h.player.SetRepeat(ctx, mode); err != nil {
			respondError(c, err)
			return
		}
	}
	h.status(c)
}

func (h *handlers) seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	position := time.Duration(*req.PositionMs) * time.Millisecond
	if err := h.player.Seek(c.Request.Context(), position); err != nil {
		respondError(c, err)
		return
	}
	h.status(c)
}

func (h *handlers) volume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.player.SetVolume(c.Request.Context(), *req.Volume); err != nil {
		respondError(c, err)
		return
	}
	h.status(c)
}

func (h *handlers) listing(c *gin.Context) {
	l, err := h.player.Listing(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *handlers) navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.player.Navigate(c.Request.Context(), req.Path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// move adapts a history movement to a handler returning the new listing.
func (h *handlers) move(fn func(ctx context.Context) (session.Listing, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := fn(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}
