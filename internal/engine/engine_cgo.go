//go:build (linux && cgo) || windows || darwin

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tessro/spindle/internal/audio"
	"github.com/tessro/spindle/internal/core"
	spindleerrors "github.com/tessro/spindle/internal/errors"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// Engine is a beep-backed core.Engine. One source is loaded at a time; the
// speaker is initialised on first use at a fixed rate and every file is
// resampled to it.
type Engine struct {
	mu sync.Mutex

	opts        Options
	logger      *log.Logger
	initialized bool

	src      core.Source
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	queued   bool // the current stream is on the speaker

	events chan core.EngineEvent
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// New creates an Engine. The sound device is opened lazily on first Load.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:   opts,
		logger: opts.Logger,
		level:  1,
		events: make(chan core.EngineEvent, DefaultEventBuffer),
		done:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.reportPosition()
	return e
}

func (e *Engine) initSpeaker() error {
	if e.initialized {
		return nil
	}
	sr := e.opts.SampleRate
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return spindleerrors.WithSuggestion(
			fmt.Errorf("%w: %v", spindleerrors.ErrEngineUnavailable, err),
			"Check that a sound device is available",
		)
	}
	e.initialized = true
	return nil
}

// Events delivers engine reports.
func (e *Engine) Events() <-chan core.EngineEvent {
	return e.events
}

// Load replaces the current source with src, paused at position 0.
func (e *Engine) Load(ctx context.Context, src core.Source) error {
	streamer, format, err := audio.Decode(src.Path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		streamer.Close()
		return spindleerrors.ErrSessionClosed
	}
	if err := e.initSpeaker(); err != nil {
		streamer.Close()
		return err
	}

	e.unloadLocked()

	e.src = src
	e.streamer = streamer
	e.format = format
	resampled := beep.Resample(4, format.SampleRate, e.opts.SampleRate, streamer)
	e.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl}
	applyLevel(e.volume, e.level)
	e.queueLocked()

	duration := format.SampleRate.D(streamer.Len())
	e.logger.Debug("loaded", "path", src.Path, "duration", duration, "rate", format.SampleRate)
	go sendEvent(e.events, e.done, core.EngineEvent{
		Type:     core.EngineDuration,
		Source:   src,
		Duration: duration,
	})
	return nil
}

// queueLocked hands the current stream to the speaker followed by an
// end-of-stream callback.
func (e *Engine) queueLocked() {
	src := e.src
	e.queued = true
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker lock held.
		go e.finished(src)
	})))
}

func (e *Engine) finished(src core.Source) {
	e.mu.Lock()
	if e.src == src {
		e.queued = false
	}
	e.mu.Unlock()
	sendEvent(e.events, e.done, core.EngineEvent{Type: core.EngineEndOfStream, Source: src})
}

func (e *Engine) unloadLocked() {
	if e.streamer == nil {
		return
	}
	speaker.Clear()
	e.streamer.Close()
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
	e.queued = false
	e.src = core.Source{}
}

// Play starts or resumes the loaded source. Playing a source that already
// reached its end starts it again from the beginning.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return nil
	}
	if !e.queued {
		speaker.Lock()
		err := e.streamer.Seek(0)
		speaker.Unlock()
		if err != nil {
			return fmt.Errorf("failed to rewind: %w", err)
		}
		e.queueLocked()
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses output, keeping the position.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return nil
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop pauses output and rewinds to the beginning.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	e.ctrl.Paused = true
	return e.streamer.Seek(0)
}

// Seek moves to positionMs, clamped to the stream bounds.
func (e *Engine) Seek(ctx context.Context, positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := e.format.SampleRate.N(time.Duration(positionMs) * time.Millisecond)
	n = max(0, min(n, e.streamer.Len()-1))
	if err := e.streamer.Seek(n); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// SetVolume sets the output level (0.0-1.0). It applies to later loads too.
func (e *Engine) SetVolume(ctx context.Context, level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = ClampLevel(level)
	if e.volume != nil {
		speaker.Lock()
		applyLevel(e.volume, e.level)
		speaker.Unlock()
	}
	return nil
}

func (e *Engine) reportPosition() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.opts.PositionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.streamer == nil || e.ctrl == nil || !e.queued {
				e.mu.Unlock()
				continue
			}
			speaker.Lock()
			paused := e.ctrl.Paused
			pos := e.format.SampleRate.D(e.streamer.Position())
			speaker.Unlock()
			src := e.src
			e.mu.Unlock()

			if !paused {
				offerEvent(e.events, core.EngineEvent{Type: core.EnginePosition, Source: src, Position: pos})
			}
		}
	}
}

// Close stops playback and releases the current stream.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.initialized {
		e.unloadLocked()
	}
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}
