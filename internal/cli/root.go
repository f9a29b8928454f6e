package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/config"
	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/remote"
)

var (
	cfgFile    string
	jsonOut    bool
	verbose    bool
	daemonAddr string

	cfg       *config.Config
	logger    *log.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "spindle",
	Short: "Play local music from the terminal",
	Long: `Spindle is a local music player. It browses a music folder, keeps a
playlist with shuffle and repeat, and can be driven from its terminal UI,
from scripts through the CLI, or over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.spindlerc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "", "address of a running spindle server")
}

func initConfig(cmd *cobra.Command) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
		// config init creates the file it was pointed at.
		if errors.Is(err, spindleerrors.ErrConfigNotFound) && isConfigInit(cmd) {
			cfg, err = config.Default(), nil
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, logCloser, err = logging.Open(logging.Options{Level: level, File: cfg.Log.File}, os.Stderr)
	if err != nil {
		return err
	}
	return nil
}

func isConfigInit(cmd *cobra.Command) bool {
	return cmd.Name() == "init" && cmd.HasParent() && cmd.Parent().Name() == "config"
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, spindleerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newClient returns a client for the daemon named by --addr or the config.
func newClient() *remote.Client {
	addr := daemonAddr
	if addr == "" {
		addr = cfg.ServerAddr()
	}
	return remote.New(addr, logging.Component(logger, "remote"))
}
