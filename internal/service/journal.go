package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
	"sensornode/internal/repository"

	"github.com/google/uuid"
)

// Recorder observes the control loop. Implementations must not block for
// long and must never fail the caller.
type Recorder interface {
	Boot(ctx context.Context, boot int)
	Transition(ctx context.Context, from, to models.DeviceState)
	Cycle(ctx context.Context, res CycleResult)
	Halt(ctx context.Context, failures int)
	Restart(ctx context.Context, cause error)
	Fault(ctx context.Context, fault error)
}

type nopRecorder struct{}

func (nopRecorder) Boot(context.Context, int)                                          {}
func (nopRecorder) Transition(context.Context, models.DeviceState, models.DeviceState) {}
func (nopRecorder) Cycle(context.Context, CycleResult)                                 {}
func (nopRecorder) Halt(context.Context, int)                                          {}
func (nopRecorder) Restart(context.Context, error)                                     {}
func (nopRecorder) Fault(context.Context, error)                                       {}

func orNopRecorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// Journal writes the device history to the repositories. It is write-only
// from the control loop's point of view: nothing it stores feeds back into
// a decision. Write errors are logged and dropped.
type Journal struct {
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
	now       func() time.Time

	mu   sync.Mutex
	snap models.DeviceSnapshot
}

func NewJournal(stateRepo repository.StateRepo, eventRepo repository.EventRepo, log *logger.Logger) *Journal {
	return &Journal{
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		log:       logger.OrNop(log).Named("journal"),
		now:       time.Now,
		snap:      models.DeviceSnapshot{ID: 1, State: models.StateStarting},
	}
}

func (j *Journal) Boot(ctx context.Context, boot int) {
	j.mu.Lock()
	j.snap.BootCount = boot
	j.snap.State = models.StateStarting
	j.snap.ConsecutiveFailures = 0
	j.mu.Unlock()

	j.append(ctx, models.EventBoot, fmt.Sprintf("boot #%d", boot), map[string]any{"boot": boot})
	j.save(ctx)
}

func (j *Journal) Transition(ctx context.Context, from, to models.DeviceState) {
	j.mu.Lock()
	j.snap.State = to
	j.mu.Unlock()

	j.append(ctx, models.EventStateChange, from.String()+" -> "+to.String(), map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
	j.save(ctx)
}

func (j *Journal) Cycle(ctx context.Context, res CycleResult) {
	j.mu.Lock()
	j.snap.ConsecutiveFailures = res.ConsecutiveFailures
	j.snap.LastStatus = res.Status
	if res.Reading != nil {
		r := *res.Reading
		j.snap.LastReading = &r
	}
	j.mu.Unlock()

	meta := map[string]any{
		"cycle":                res.Cycle,
		"status":               res.Status,
		"consecutive_failures": res.ConsecutiveFailures,
	}
	if res.Reading != nil {
		meta["temperature"] = res.Reading.Temperature
		meta["humidity"] = res.Reading.Humidity
	}
	desc := "reading delivered"
	if res.Err != nil {
		desc = "reading failed"
		meta["error"] = res.Err.Error()
	}
	j.append(ctx, models.EventReading, desc, meta)
	j.save(ctx)
}

func (j *Journal) Halt(ctx context.Context, failures int) {
	j.append(ctx, models.EventHalt, "halted after consecutive failures", map[string]any{"failures": failures})
}

func (j *Journal) Restart(ctx context.Context, cause error) {
	meta := map[string]any{}
	if cause != nil {
		meta["cause"] = cause.Error()
	}
	j.append(ctx, models.EventRestart, "restart requested", meta)
}

func (j *Journal) Fault(ctx context.Context, fault error) {
	meta := map[string]any{}
	if fault != nil {
		meta["error"] = fault.Error()
	}
	j.append(ctx, models.EventFault, "unexpected fault", meta)
}

func (j *Journal) append(ctx context.Context, typ, desc string, meta map[string]any) {
	if j.eventRepo == nil {
		return
	}
	err := j.eventRepo.Append(ctx, models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  j.now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		j.log.Warnw("journal_append_failed", "type", typ, "err", err)
	}
}

func (j *Journal) save(ctx context.Context) {
	if j.stateRepo == nil {
		return
	}
	j.mu.Lock()
	j.snap.UpdatedAt = j.now().UTC()
	snap := j.snap
	j.mu.Unlock()

	if err := j.stateRepo.Save(ctx, snap); err != nil {
		j.log.Warnw("journal_save_failed", "err", err)
	}
}
