package config

// Config is the root configuration structure.
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Playback PlaybackConfig `toml:"playback"`
	History  HistoryConfig  `toml:"history"`
	Server   ServerConfig   `toml:"server"`
	Tail     TailConfig     `toml:"tail"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
	State    StateConfig    `toml:"state"`
}

// LibraryConfig holds file browser settings.
type LibraryConfig struct {
	Root       string `toml:"root"`
	Watch      bool   `toml:"watch"`
	ShowHidden bool   `toml:"show_hidden"`
	Workers    int    `toml:"workers"`
}

// PlaybackConfig holds the playback settings a session starts with.
type PlaybackConfig struct {
	Volume  int    `toml:"volume"`
	Shuffle bool   `toml:"shuffle"`
	Repeat  string `toml:"repeat"`
}

// HistoryConfig holds directory history settings.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// ServerConfig holds remote control settings. Addr is where client
// commands reach the daemon.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	PositionRate float64  `toml:"position_rate"`
	Addr         string   `toml:"addr"`
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval int  `toml:"interval"`
	Poll     bool `toml:"poll"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// StateConfig holds where persistent state is kept.
type StateConfig struct {
	Path string `toml:"path"`
}
