package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sensornode/internal/models"
	"sensornode/internal/repository"
)

// ErrInvalidFilter wraps every rejected LogFilter.
var ErrInvalidFilter = errors.New("invalid event filter")

var journalEventTypes = map[string]struct{}{
	models.EventBoot:        {},
	models.EventStateChange: {},
	models.EventReading:     {},
	models.EventRestart:     {},
	models.EventHalt:        {},
	models.EventFault:       {},
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns journal entries matching f, oldest first. Bounds are
// compared in UTC and the type is matched case-insensitively.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	q, err := f.normalize()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q.From, q.To, q.Type)
}

func (f LogFilter) normalize() (LogFilter, error) {
	out := LogFilter{
		From: toUTC(f.From),
		To:   toUTC(f.To),
		Type: strings.ToUpper(strings.TrimSpace(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, out.From, out.To)
	}
	if out.Type != "" {
		if _, ok := journalEventTypes[out.Type]; !ok {
			return LogFilter{}, fmt.Errorf("%w: unknown event type %q", ErrInvalidFilter, f.Type)
		}
	}
	return out, nil
}
