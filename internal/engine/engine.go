// Package engine plays audio files through the system sound device.
package engine

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/logging"
)

// Defaults for Options.
const (
	DefaultSampleRate       = beep.SampleRate(44100)
	DefaultPositionInterval = 500 * time.Millisecond
	DefaultEventBuffer      = 64
)

// Options configures an Engine.
type Options struct {
	SampleRate       beep.SampleRate
	PositionInterval time.Duration
	Logger           *log.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.PositionInterval <= 0 {
		o.PositionInterval = DefaultPositionInterval
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// ClampLevel limits a volume level to 0.0-1.0.
func ClampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return 1
	}
	return math.Max(0, math.Min(1, level))
}

// applyLevel maps a linear level onto a base-2 volume effect: 1.0 is unity
// gain, 0.5 halves the amplitude, 0 is silent.
func applyLevel(v *effects.Volume, level float64) {
	level = ClampLevel(level)
	v.Base = 2
	v.Silent = level == 0
	if level > 0 {
		v.Volume = math.Log2(level)
	} else {
		v.Volume = 0
	}
}

// LevelFromPercent converts a 0-100 volume to a level.
func LevelFromPercent(percent int) float64 {
	return ClampLevel(float64(percent) / 100)
}

// PercentFromLevel converts a level to a 0-100 volume.
func PercentFromLevel(level float64) int {
	return int(math.Round(ClampLevel(level) * 100))
}

// sendEvent delivers ev unless the engine is shutting down.
func sendEvent(events chan<- core.EngineEvent, done <-chan struct{}, ev core.EngineEvent) {
	select {
	case events <- ev:
	case <-done:
	}
}

// offerEvent delivers ev only if there is room. Position reports are
// periodic, so a dropped one is replaced by the next.
func offerEvent(events chan<- core.EngineEvent, ev core.EngineEvent) {
	select {
	case events <- ev:
	default:
	}
}
