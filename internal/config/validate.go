package config

import (
	"errors"
	"fmt"

	"github.com/tessro/spindle/internal/core"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Library.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("library: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Tail.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tail: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks LibraryConfig for errors.
func (c *LibraryConfig) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must be non-negative")
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	if _, err := core.ParseRepeatMode(c.Repeat); err != nil {
		return err
	}
	return nil
}

// RepeatMode returns the parsed repeat setting, RepeatOff if invalid.
func (c *PlaybackConfig) RepeatMode() core.RepeatMode {
	mode, _ := core.ParseRepeatMode(c.Repeat)
	return mode
}

// Validate checks HistoryConfig for errors.
func (c *HistoryConfig) Validate() error {
	if c.MaxEntries < 0 {
		return errors.New("max_entries must be non-negative")
	}
	return nil
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PositionRate < 0 {
		return errors.New("position_rate must be non-negative")
	}
	return nil
}

// Validate checks TailConfig for errors.
func (c *TailConfig) Validate() error {
	if c.Interval < 0 {
		return errors.New("interval must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
