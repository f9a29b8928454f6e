package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the player without a UI",
	Long: `Run a player session in the foreground and serve the HTTP API, so the
CLI commands, 'spindle tail' and other clients can drive it.

The API listens on 127.0.0.1:7878 by default; see the [server] section of
the config file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, err := startPlayer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = player.Close() }()

	srv := newServer(player)
	if !JSONOutput() {
		fmt.Fprintf(os.Stderr, "🎵 spindle %s serving on %s\n", Version, serveAddr(srv))
	}
	err = srv.Run(ctx)
	cancel()
	return err
}
