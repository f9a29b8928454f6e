// Package server exposes a session over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/sequencer"
	"github.com/tessro/spindle/internal/session"
)

// Player is the part of a session the server drives.
type Player interface {
	Status(ctx context.Context) (*core.PlaybackState, error)
	Tracks(ctx context.Context) (session.PlaylistView, error)
	Sequence(ctx context.Context) (sequencer.Snapshot, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	TogglePause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	PlayAt(ctx context.Context, index int) (bool, error)
	Seek(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, percent int) (int, error)
	ToggleShuffle(ctx context.Context) (bool, error)
	CycleRepeat(ctx context.Context) (core.RepeatMode, error)
	SetRepeat(ctx context.Context, mode core.RepeatMode) error

	Add(ctx context.Context, paths []string) (*spindleerrors.PartialResult[[]core.Track], error)
	AddDirectory(ctx context.Context, dir string, recursive bool) (*spindleerrors.PartialResult[[]core.Track], error)
	Remove(ctx context.Context, index int) (bool, error)
	Clear(ctx context.Context) error

	Listing(ctx context.Context) (session.Listing, error)
	Navigate(ctx context.Context, path string) (session.Listing, error)
	Back(ctx context.Context) (session.Listing, error)
	Forward(ctx context.Context) (session.Listing, error)
	Up(ctx context.Context) (session.Listing, error)

	Subscribe() (<-chan session.Event, func())
}

// Options configures the server.
type Options struct {
	Host        string
	Port        int
	CORSOrigins []string
	// PositionRate caps position events sent to WebSocket clients per
	// second.
	PositionRate float64
	Version      string
	Logger       *log.Logger
}

// Server serves the remote-control API.
type Server struct {
	player   Player
	opts     Options
	logger   *log.Logger
	hub      *Hub
	router   *gin.Engine
	upgrader func(w http.ResponseWriter, r *http.Request) (*Client, error)
}

// New builds the router for player.
func New(player Player, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.PositionRate <= 0 {
		opts.PositionRate = 1
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}

	logger := logging.Component(opts.Logger, "server")
	s := &Server{
		player: player,
		opts:   opts,
		logger: logger,
		hub:    NewHub(logger),
	}

	upgrader := newUpgrader(checkOrigin(opts.CORSOrigins))
	s.upgrader = func(w http.ResponseWriter, r *http.Request) (*Client, error) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return nil, err
		}
		return NewClient(s.hub, conn), nil
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware(opts.CORSOrigins))
	s.setupRoutes(r)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

func (s *Server) setupRoutes(r *gin.Engine) {
	h := &handlers{player: s.player, version: s.opts.Version}

	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/sequence", h.sequence)

		playlist := api.Group("/playlist")
		{
			playlist.GET("", h.playlist)
			playlist.POST("", h.addToPlaylist)
			playlist.DELETE("", h.clearPlaylist)
			playlist.DELETE("/:index", h.removeFromPlaylist)
		}

		player := api.Group("/player")
		{
			player.POST("/play", h.command(s.player.Play))
			player.POST("/pause", h.command(s.player.Pause))
			player.POST("/toggle", h.command(s.player.TogglePause))
			player.POST("/stop", h.command(s.player.Stop))
			player.POST("/next", h.command(s.player.Next))
			player.POST("/previous", h.command(s.player.Previous))
			player.POST("/play/:index", h.playAt)
			player.POST("/shuffle", h.shuffle)
			player.POST("/repeat", h.repeat)
			player.POST("/seek", h.seek)
			player.POST("/volume", h.volume)
		}

		browse := api.Group("/browse")
		{
			browse.GET("", h.listing)
			browse.POST("/navigate", h.navigate)
			browse.POST("/back", h.move(s.player.Back))
			browse.POST("/forward", h.move(s.player.Forward))
			browse.POST("/up", h.move(s.player.Up))
		}

		api.GET("/ws", s.serveWS)
	}
}

func (s *Server) serveWS(c *gin.Context) {
	client, err := s.upgrader(c.Writer, c.Request)
	if err != nil {
		// The upgrader has already written an error response.
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	if !s.hub.RegisterClient(c.Request.Context(), client) {
		client.conn.Close()
		return
	}
	client.StartPumps(context.WithoutCancel(c.Request.Context()))
}

// forwardEvents relays session events to the hub, rate limiting position
// updates.
func (s *Server) forwardEvents(ctx context.Context) {
	events, cancel := s.player.Subscribe()
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(s.opts.PositionRate), 1)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type == session.EventPosition && !limiter.Allow() {
				continue
			}
			s.hub.Broadcast(e)
		}
	}
}

// Start runs the hub and event relay until ctx is cancelled. Run calls it;
// tests that serve Handler directly call it themselves.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
	go s.forwardEvents(ctx)
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}
