package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source identifies one load of a file into the engine. Loading the same path
// twice yields two different sources, so a late end-of-stream notification
// for an earlier load can be told apart from the current one.
type Source struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

// NewSource returns a fresh Source for path.
func NewSource(path string) Source {
	return Source{Path: path, ID: uuid.NewString()}
}

// IsZero reports whether no source is set.
func (s Source) IsZero() bool {
	return s.ID == "" && s.Path == ""
}

// Engine decodes and outputs audio for one source at a time.
type Engine interface {
	// Load replaces the current source. Playback starts paused.
	Load(ctx context.Context, src Source) error

	// Transport control
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, positionMs int64) error

	// SetVolume sets the output level in the range 0.0-1.0.
	SetVolume(ctx context.Context, level float64) error

	// Events delivers position, duration, end-of-stream and error reports.
	Events() <-chan EngineEvent

	Close() error
}

// EngineEventType is the kind of report emitted by an Engine.
type EngineEventType int

const (
	EnginePosition EngineEventType = iota
	EngineDuration
	EngineEndOfStream
	EngineError
)

func (t EngineEventType) String() string {
	switch t {
	case EnginePosition:
		return "position"
	case EngineDuration:
		return "duration"
	case EngineEndOfStream:
		return "end_of_stream"
	case EngineError:
		return "error"
	default:
		return "unknown"
	}
}

// EngineEvent is an asynchronous report from the engine about Source.
type EngineEvent struct {
	Type     EngineEventType
	Source   Source
	Position time.Duration
	Duration time.Duration
	Err      error
}
