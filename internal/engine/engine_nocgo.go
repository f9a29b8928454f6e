//go:build !((linux && cgo) || windows || darwin)

package engine

import (
	"context"

	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires cgo for the native sound libraries.
const AudioAvailable = false

// Engine is a stand-in used when the binary is built without cgo. Every
// load fails with ErrEngineUnavailable so the session can report it; the
// rest of the player keeps working.
type Engine struct {
	events chan core.EngineEvent
}

// New creates an Engine that cannot produce sound.
func New(opts Options) *Engine {
	opts.withDefaults().Logger.Warn("built without cgo; audio output disabled")
	return &Engine{events: make(chan core.EngineEvent)}
}

// Load always fails.
func (e *Engine) Load(ctx context.Context, src core.Source) error {
	return spindleerrors.WithSuggestion(spindleerrors.ErrEngineUnavailable, "Rebuild spindle with CGO_ENABLED=1 to enable playback")
}

// Play is a no-op when cgo is disabled.
func (e *Engine) Play(ctx context.Context) error { return nil }

// Pause is a no-op when cgo is disabled.
func (e *Engine) Pause(ctx context.Context) error { return nil }

// Stop is a no-op when cgo is disabled.
func (e *Engine) Stop(ctx context.Context) error { return nil }

// Seek is a no-op when cgo is disabled.
func (e *Engine) Seek(ctx context.Context, positionMs int64) error { return nil }

// SetVolume is a no-op when cgo is disabled.
func (e *Engine) SetVolume(ctx context.Context, level float64) error { return nil }

// Events never delivers anything when cgo is disabled.
func (e *Engine) Events() <-chan core.EngineEvent { return e.events }

// Close is a no-op when cgo is disabled.
func (e *Engine) Close() error { return nil }
