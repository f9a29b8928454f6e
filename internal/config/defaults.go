package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Library: LibraryConfig{
			Root:  defaultRoot(),
			Watch: true,
		},
		Playback: PlaybackConfig{
			Volume:  100,
			Shuffle: false,
			Repeat:  "off",
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         7878,
			PositionRate: 1,
		},
		Tail: TailConfig{
			Interval: 1000,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
		State: StateConfig{
			Path: defaultStatePath(),
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults. Volume is left
// alone because 0 is a valid setting; Load applies its default only when the
// file does not set it.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Library
	if c.Library.Root == "" {
		c.Library.Root = d.Library.Root
	}

	// Playback
	if c.Playback.Repeat == "" {
		c.Playback.Repeat = d.Playback.Repeat
	}

	// History
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = d.History.MaxEntries
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.PositionRate == 0 {
		c.Server.PositionRate = d.Server.PositionRate
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}

	// State
	if c.State.Path == "" {
		c.State.Path = d.State.Path
	}
}

// ServerAddr returns the base URL client commands use to reach the daemon.
func (c *Config) ServerAddr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

// defaultRoot is the music folder, or the home directory when there is none.
func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	music := filepath.Join(home, "Music")
	if info, err := os.Stat(music); err == nil && info.IsDir() {
		return music
	}
	return home
}

// defaultStatePath follows the XDG base directory layout.
func defaultStatePath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "spindle", "state.db")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "spindle", "state.db")
}
