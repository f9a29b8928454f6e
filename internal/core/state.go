package core

import "time"

// NoIndex is the sentinel for "no playlist index".
const NoIndex = -1

// PlayerState is the engine's coarse transport state.
type PlayerState string

const (
	StateStopped PlayerState = "stopped"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
)

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Track        *Track        `json:"track"`
	Index        int           `json:"index"`
	State        PlayerState   `json:"state"`
	Progress     time.Duration `json:"progress"`
	Duration     time.Duration `json:"duration"`
	Volume       int           `json:"volume"`
	Shuffle      bool          `json:"shuffle"`
	Repeat       RepeatMode    `json:"repeat"`
	PlaylistSize int           `json:"playlist_size"`
	Message      string        `json:"message,omitempty"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// IsPlaying returns true while audio is being output.
func (s *PlaybackState) IsPlaying() bool {
	return s != nil && s.State == StatePlaying
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil {
		return 0
	}
	total := s.Duration
	if total == 0 && s.Track != nil {
		total = s.Track.Duration
	}
	if total == 0 {
		return 0
	}
	p := float64(s.Progress) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
