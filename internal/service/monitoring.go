package service

import (
	"context"
	"time"

	"sensornode/internal/models"
	"sensornode/internal/repository"
)

// StateSource reports the live device state.
type StateSource interface {
	State() models.DeviceState
}

type MonitoringService struct {
	stateRepo repository.StateRepo
	live      StateSource
	console   Console
	patterns  PatternTable
}

func NewMonitoringService(stateRepo repository.StateRepo, live StateSource, console Console, patterns PatternTable) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, live: live, console: console, patterns: patterns}
}

// GetState merges the last journaled snapshot with the live state.
// If nothing is journaled yet, returns a baseline STARTING snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (DeviceStatus, error) {
	snap, err := s.stateRepo.Load(ctx)
	if err != nil {
		return DeviceStatus{}, err
	}
	if snap.ID == 0 {
		snap = s.baselineSnapshot()
	}
	snap.UpdatedAt = toUTC(snap.UpdatedAt)
	if s.live != nil {
		snap.State = s.live.State()
	}

	st := DeviceStatus{
		DeviceSnapshot: snap,
		Pattern:        s.patterns.For(snap.State),
	}
	if s.console != nil {
		st.StartupWindowOpen = s.console.WindowOpen()
		st.StartupHeld = s.console.Held()
	}
	return st, nil
}

func (s *MonitoringService) baselineSnapshot() models.DeviceSnapshot {
	return models.DeviceSnapshot{
		ID:        1, // DB schema enforces single-row state with id=1
		State:     models.StateStarting,
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
