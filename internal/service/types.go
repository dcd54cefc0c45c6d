package service

import (
	"time"

	"sensornode/internal/models"
)

// LogFilter supports journal filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "BOOT", "STATE_CHANGE", "READING", "RESTART", "HALT", "FAULT"
}

// DeviceStatus is what the console shows for GET /device/state.
type DeviceStatus struct {
	models.DeviceSnapshot
	Pattern           models.IndicatorPattern `json:"pattern"`
	StartupWindowOpen bool                    `json:"startup_window_open"`
	StartupHeld       bool                    `json:"startup_held"`
}

// CycleResult describes one pass of the sampling loop.
type CycleResult struct {
	Cycle               int
	Reading             *models.Reading // nil when the sensor failed
	Status              int             // collector status, 0 when nothing was sent
	Err                 error           // nil on success
	ConsecutiveFailures int
}

// OK reports whether the cycle counts as a success.
func (r CycleResult) OK() bool { return r.Err == nil }
