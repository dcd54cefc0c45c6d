package service

import (
	"context"
	"sync/atomic"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

const (
	DefaultBlinkOn  = 500 * time.Millisecond
	DefaultBlinkOff = 500 * time.Millisecond
)

// PatternTable maps every DeviceState to the pattern shown for it.
type PatternTable struct {
	blinkOn  time.Duration
	blinkOff time.Duration
}

// NewPatternTable uses on/off for every blinking pattern. Non-positive
// durations fall back to the defaults.
func NewPatternTable(on, off time.Duration) PatternTable {
	if on <= 0 {
		on = DefaultBlinkOn
	}
	if off <= 0 {
		off = DefaultBlinkOff
	}
	return PatternTable{blinkOn: on, blinkOff: off}
}

// DefaultPatterns is the table with 500ms on / 500ms off blinking.
func DefaultPatterns() PatternTable {
	return NewPatternTable(DefaultBlinkOn, DefaultBlinkOff)
}

// For is a pure lookup.
func (t PatternTable) For(s models.DeviceState) models.IndicatorPattern {
	if t.blinkOn <= 0 || t.blinkOff <= 0 {
		t = DefaultPatterns()
	}
	switch s {
	case models.StateStarting:
		return models.Blinking(models.ColorWhite, t.blinkOn, t.blinkOff)
	case models.StateConnectingNetwork:
		return models.Blinking(models.ColorBlue, t.blinkOn, t.blinkOff)
	case models.StateNetworkConnected:
		return models.Off()
	case models.StateReportingOK:
		return models.Blinking(models.ColorGreen, t.blinkOn, t.blinkOff)
	case models.StateReportingFailed:
		return models.Blinking(models.ColorRed, t.blinkOn, t.blinkOff)
	case models.StateHalted:
		return models.Solid(models.ColorRed)
	case models.StateUnexpectedFault:
		return models.Solid(models.ColorBlue)
	default:
		return models.Off()
	}
}

const stateUnset = -1

// IndicatorController owns the current DeviceState and keeps the indicator
// device in sync with it. Only the control goroutine calls Show; State is
// safe from any goroutine.
type IndicatorController struct {
	device   Indicator
	patterns PatternTable
	recorder Recorder
	log      *logger.Logger

	current atomic.Int32
}

func NewIndicatorController(device Indicator, patterns PatternTable, recorder Recorder, log *logger.Logger) *IndicatorController {
	c := &IndicatorController{
		device:   device,
		patterns: patterns,
		recorder: orNopRecorder(recorder),
		log:      logger.OrNop(log).Named("indicator"),
	}
	c.current.Store(stateUnset)
	return c
}

// Show moves to state and drives its pattern. Showing the current state
// again re-applies the same pattern. A failing indicator device is logged
// and otherwise ignored.
func (c *IndicatorController) Show(ctx context.Context, state models.DeviceState) {
	prev := c.current.Swap(int32(state))
	if prev != stateUnset && prev != int32(state) {
		from := models.DeviceState(prev)
		c.log.Debugw("state_change", "from", from.String(), "to", state.String())
		c.recorder.Transition(ctx, from, state)
	}
	if c.device == nil {
		return
	}
	if err := c.device.SetPattern(c.patterns.For(state)); err != nil {
		c.log.Warnw("indicator_set_failed", "state", state.String(), "err", err)
	}
}

// State returns the state last shown, StateStarting before the first Show.
func (c *IndicatorController) State() models.DeviceState {
	v := c.current.Load()
	if v == stateUnset {
		return models.StateStarting
	}
	return models.DeviceState(v)
}

// Pattern returns the pattern for the current state.
func (c *IndicatorController) Pattern() models.IndicatorPattern {
	return c.patterns.For(c.State())
}
