package models

import "time"

// Color is an RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	ColorNone  = Color{}
	ColorWhite = Color{R: 255, G: 255, B: 255}
	ColorBlue  = Color{B: 255}
	ColorGreen = Color{G: 255}
	ColorRed   = Color{R: 255}
)

// IndicatorMode is how the color is shown.
type IndicatorMode string

const (
	ModeBlinking IndicatorMode = "BLINKING"
	ModeSolid    IndicatorMode = "SOLID"
	ModeOff      IndicatorMode = "OFF"
)

// IndicatorPattern is what the visual indicator shows for a DeviceState.
// OnDuration/OffDuration are only meaningful for ModeBlinking.
type IndicatorPattern struct {
	Color       Color         `json:"color"`
	Mode        IndicatorMode `json:"mode"`
	OnDuration  time.Duration `json:"on_duration,omitempty"`
	OffDuration time.Duration `json:"off_duration,omitempty"`
}

// Blinking builds a blinking pattern.
func Blinking(c Color, on, off time.Duration) IndicatorPattern {
	return IndicatorPattern{Color: c, Mode: ModeBlinking, OnDuration: on, OffDuration: off}
}

// Solid builds a steady pattern.
func Solid(c Color) IndicatorPattern {
	return IndicatorPattern{Color: c, Mode: ModeSolid}
}

// Off is the dark indicator.
func Off() IndicatorPattern {
	return IndicatorPattern{Color: ColorNone, Mode: ModeOff}
}
