package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sensornode/internal/models"
)

type monitoringStateRepoStub struct {
	loadResp models.DeviceSnapshot
	loadErr  error
}

func (s *monitoringStateRepoStub) Load(ctx context.Context) (models.DeviceSnapshot, error) {
	return s.loadResp, s.loadErr
}

func (s *monitoringStateRepoStub) Save(ctx context.Context, _ models.DeviceSnapshot) error {
	return nil
}

type staticState models.DeviceState

func (s staticState) State() models.DeviceState { return models.DeviceState(s) }

func TestMonitoringService_GetState(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", -3*3600))

	cases := []struct {
		name       string
		repoResp   models.DeviceSnapshot
		repoErr    error
		live       StateSource
		assertFunc func(t *testing.T, got DeviceStatus, err error)
	}{
		{
			name:    "propagates repo error",
			repoErr: errors.New("db down"),
			assertFunc: func(t *testing.T, got DeviceStatus, err error) {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
			},
		},
		{
			name: "baseline when nothing journaled",
			assertFunc: func(t *testing.T, got DeviceStatus, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID != 1 || got.State != models.StateStarting {
					t.Fatalf("unexpected baseline: %+v", got.DeviceSnapshot)
				}
				if got.UpdatedAt.IsZero() || got.UpdatedAt.Location() != time.UTC {
					t.Fatalf("baseline UpdatedAt must be set in UTC, got %v", got.UpdatedAt)
				}
				if got.Pattern != DefaultPatterns().For(models.StateStarting) {
					t.Fatalf("pattern = %+v", got.Pattern)
				}
			},
		},
		{
			name: "live state overrides journaled state",
			repoResp: models.DeviceSnapshot{
				ID: 1, State: models.StateReportingOK, BootCount: 3, UpdatedAt: stamp,
			},
			live: staticState(models.StateHalted),
			assertFunc: func(t *testing.T, got DeviceStatus, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.State != models.StateHalted || got.BootCount != 3 {
					t.Fatalf("unexpected status: %+v", got.DeviceSnapshot)
				}
				if got.Pattern != models.Solid(models.ColorRed) {
					t.Fatalf("pattern = %+v; want solid red", got.Pattern)
				}
				want := time.Date(2025, 1, 2, 6, 4, 5, 0, time.UTC)
				if !got.UpdatedAt.Equal(want) || got.UpdatedAt.Location() != time.UTC {
					t.Fatalf("UpdatedAt = %v; want %v", got.UpdatedAt, want)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			repo := &monitoringStateRepoStub{loadResp: tc.repoResp, loadErr: tc.repoErr}
			svc := NewMonitoringService(repo, tc.live, nil, DefaultPatterns())

			got, err := svc.GetState(ctx)
			tc.assertFunc(t, got, err)
		})
	}
}

func TestMonitoringService_ReportsStartupWindow(t *testing.T) {
	t.Parallel()

	gate := NewStartupGate()
	svc := NewMonitoringService(&monitoringStateRepoStub{}, nil, gate, DefaultPatterns())

	done := make(chan error, 1)
	go func() { done <- gate.Wait(context.Background(), 40*time.Millisecond) }()
	for !gate.WindowOpen() {
		time.Sleep(time.Millisecond)
	}

	got, err := svc.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !got.StartupWindowOpen || got.StartupHeld {
		t.Fatalf("window flags = open:%v held:%v", got.StartupWindowOpen, got.StartupHeld)
	}
	<-done
}

func TestToUTC(t *testing.T) {
	t.Parallel()

	var z time.Time
	if got := toUTC(z); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
	local := time.Date(2025, 2, 3, 10, 0, 0, 0, time.FixedZone("Z+2", 2*3600))
	if got := toUTC(local); got.Location() != time.UTC || !got.Equal(local) {
		t.Fatalf("toUTC(%v) = %v", local, got)
	}
}
