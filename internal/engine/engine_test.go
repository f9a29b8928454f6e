package engine

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2/effects"

	"github.com/tessro/spindle/internal/core"
)

var _ core.Engine = (*Engine)(nil)

func TestClampLevel(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := ClampLevel(tt.in); got != tt.want {
			t.Errorf("ClampLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyLevel(t *testing.T) {
	var v effects.Volume

	applyLevel(&v, 1)
	if v.Silent || v.Volume != 0 || v.Base != 2 {
		t.Errorf("level 1: got %+v, want unity gain", v)
	}

	applyLevel(&v, 0.5)
	if v.Volume != -1 {
		t.Errorf("level 0.5: Volume = %v, want -1", v.Volume)
	}

	applyLevel(&v, 0)
	if !v.Silent {
		t.Error("level 0: Silent = false, want true")
	}
}

func TestPercentConversion(t *testing.T) {
	for _, p := range []int{0, 1, 37, 50, 100} {
		if got := PercentFromLevel(LevelFromPercent(p)); got != p {
			t.Errorf("round trip %d = %d", p, got)
		}
	}
	if got := LevelFromPercent(150); got != 1 {
		t.Errorf("LevelFromPercent(150) = %v, want 1", got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %v, want %v", o.SampleRate, DefaultSampleRate)
	}
	if o.PositionInterval != DefaultPositionInterval {
		t.Errorf("PositionInterval = %v, want %v", o.PositionInterval, DefaultPositionInterval)
	}
	if o.Logger == nil {
		t.Error("Logger = nil, want discard logger")
	}

	o = Options{PositionInterval: time.Second}.withDefaults()
	if o.PositionInterval != time.Second {
		t.Errorf("PositionInterval = %v, want 1s", o.PositionInterval)
	}
}

func TestOfferEventDropsWhenFull(t *testing.T) {
	events := make(chan core.EngineEvent, 1)
	offerEvent(events, core.EngineEvent{Type: core.EnginePosition})
	offerEvent(events, core.EngineEvent{Type: core.EnginePosition})
	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1", len(events))
	}
}

func TestSendEventStopsOnDone(t *testing.T) {
	events := make(chan core.EngineEvent)
	done := make(chan struct{})
	close(done)
	sendEvent(events, done, core.EngineEvent{Type: core.EngineEndOfStream})
}
