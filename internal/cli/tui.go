package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/spindle/internal/tui"
)

var uiServe bool

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the terminal player",
	Long: `Launch the interactive player with a directory browser, the playlist,
now-playing panel and recently played tracks.

With --serve the HTTP API is started as well, so the CLI commands and
other clients can control the same session.`,
	RunE: runUI,
}

func init() {
	uiCmd.Flags().BoolVar(&uiServe, "serve", false, "also serve the HTTP API")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer cancel()

	sessCtx, stopSession := context.WithCancel(ctx)
	player, err := startPlayer(sessCtx)
	if err != nil {
		stopSession()
		return err
	}
	defer func() { _ = player.Close() }()
	defer stopSession()

	opts := tui.Options{
		RefreshRate: time.Duration(cfg.TUI.RefreshInterval) * time.Millisecond,
		Theme:       cfg.TUI.Theme,
	}

	g, gctx := errgroup.WithContext(sessCtx)
	if uiServe {
		srv := newServer(player)
		opts.Footer = "API " + serveAddr(srv)
		g.Go(func() error { return srv.Run(gctx) })
	}
	g.Go(func() error {
		// Quitting the UI ends the session and the server with it.
		defer stopSession()
		return tui.Run(gctx, player, opts)
	})
	return g.Wait()
}
