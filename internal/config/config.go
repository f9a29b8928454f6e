// Package config loads spindle's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	spindleerrors "github.com/tessro/spindle/internal/errors"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.spindlerc, $XDG_CONFIG_HOME/spindle/config.toml, ~/.config/spindle/config.toml
func Load() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return decode(path)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", spindleerrors.ErrConfigNotFound, path)
	}
	return decode(path)
}

func decode(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", spindleerrors.ErrInvalidConfig, path, err)
	}
	if !md.IsDefined("playback", "volume") {
		cfg.Playback.Volume = Default().Playback.Volume
	}
	if !md.IsDefined("library", "watch") {
		cfg.Library.Watch = Default().Library.Watch
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the config file in use, or where `config init` writes one.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return xdgConfigPath()
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func xdgConfigPath() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "config.toml")
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "spindle", "config.toml")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".spindlerc"))
	}
	paths = append(paths, xdgConfigPath())

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// setters maps dotted keys to functions that parse and assign a value.
var setters = map[string]func(c *Config, v string) error{
	"library.root":         func(c *Config, v string) error { c.Library.Root = v; return nil },
	"library.watch":        func(c *Config, v string) error { return setBool(&c.Library.Watch, v) },
	"library.show_hidden":  func(c *Config, v string) error { return setBool(&c.Library.ShowHidden, v) },
	"library.workers":      func(c *Config, v string) error { return setInt(&c.Library.Workers, v) },
	"playback.volume":      func(c *Config, v string) error { return setInt(&c.Playback.Volume, v) },
	"playback.shuffle":     func(c *Config, v string) error { return setBool(&c.Playback.Shuffle, v) },
	"playback.repeat":      func(c *Config, v string) error { c.Playback.Repeat = v; return nil },
	"history.max_entries":  func(c *Config, v string) error { return setInt(&c.History.MaxEntries, v) },
	"server.host":          func(c *Config, v string) error { c.Server.Host = v; return nil },
	"server.port":          func(c *Config, v string) error { return setInt(&c.Server.Port, v) },
	"server.addr":          func(c *Config, v string) error { c.Server.Addr = v; return nil },
	"server.cors_origins":  func(c *Config, v string) error { c.Server.CORSOrigins = splitList(v); return nil },
	"server.position_rate": func(c *Config, v string) error { return setFloat(&c.Server.PositionRate, v) },
	"tail.interval":        func(c *Config, v string) error { return setInt(&c.Tail.Interval, v) },
	"tail.poll":            func(c *Config, v string) error { return setBool(&c.Tail.Poll, v) },
	"tui.theme":            func(c *Config, v string) error { c.TUI.Theme = v; return nil },
	"tui.refresh_interval": func(c *Config, v string) error { return setInt(&c.TUI.RefreshInterval, v) },
	"log.level":            func(c *Config, v string) error { c.Log.Level = v; return nil },
	"log.file":             func(c *Config, v string) error { c.Log.File = v; return nil },
	"state.path":           func(c *Config, v string) error { c.State.Path = v; return nil },
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the dotted key, then validates the result.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", spindleerrors.ErrInvalidConfig, key)
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", v)
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer %q", v)
	}
	*dst = i
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", v)
	}
	*dst = f
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Library
	if v := os.Getenv("SPINDLE_LIBRARY_ROOT"); v != "" {
		cfg.Library.Root = v
	}
	if v := os.Getenv("SPINDLE_LIBRARY_WATCH"); v != "" {
		_ = setBool(&cfg.Library.Watch, v)
	}

	// Playback
	if v := os.Getenv("SPINDLE_PLAYBACK_VOLUME"); v != "" {
		_ = setInt(&cfg.Playback.Volume, v)
	}
	if v := os.Getenv("SPINDLE_PLAYBACK_REPEAT"); v != "" {
		cfg.Playback.Repeat = v
	}

	// Server
	if v := os.Getenv("SPINDLE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SPINDLE_SERVER_PORT"); v != "" {
		_ = setInt(&cfg.Server.Port, v)
	}
	if v := os.Getenv("SPINDLE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// TUI
	if v := os.Getenv("SPINDLE_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("SPINDLE_TUI_REFRESH_INTERVAL"); v != "" {
		_ = setInt(&cfg.TUI.RefreshInterval, v)
	}

	// Log
	if v := os.Getenv("SPINDLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SPINDLE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// State
	if v := os.Getenv("SPINDLE_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
}
