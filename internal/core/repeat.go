package core

import "fmt"

// RepeatMode controls what happens when playback reaches the end of a track
// or of the playlist.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop at the end of the playlist
	RepeatAll                   // Wrap around to the start of the playlist
	RepeatOne                   // Replay the current track indefinitely
)

// Next returns the following mode in the cycle Off -> All -> One -> Off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a config or API string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "", "off":
		return RepeatOff, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatOff, fmt.Errorf("invalid repeat mode: %s (must be off, all, or one)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(b []byte) error {
	mode, err := ParseRepeatMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
