package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

var (
	ErrHalted           = errors.New("halted after consecutive reporting failures")
	ErrUnexpectedStatus = errors.New("collector rejected reading")
	ErrInvalidReading   = errors.New("sensor returned a non-finite value")
)

const (
	DefaultSamplingInterval = 30 * time.Second
	DefaultFailureThreshold = 3
)

type SamplingOptions struct {
	Interval         time.Duration
	FailureThreshold int
}

func (o SamplingOptions) withDefaults() SamplingOptions {
	if o.Interval < 0 {
		o.Interval = DefaultSamplingInterval
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	return o
}

// FaultError wraps a panic raised inside the control loop.
type FaultError struct {
	Cycle int // 0 when raised outside the sampling loop
	Cause any
	Stack []byte
}

func (e *FaultError) Error() string {
	if e.Cycle > 0 {
		return fmt.Sprintf("unexpected fault in cycle %d: %v", e.Cycle, e.Cause)
	}
	return fmt.Sprintf("unexpected fault: %v", e.Cause)
}

func (e *FaultError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// SamplingLoop reads, transmits and tracks consecutive failures. The
// failure counter lives as long as one Run.
type SamplingLoop struct {
	sensor    Sensor
	tx        Transmitter
	indicator *IndicatorController
	recorder  Recorder
	opts      SamplingOptions
	log       *logger.Logger
	now       func() time.Time

	cycle    int
	failures int
}

func NewSamplingLoop(sensor Sensor, tx Transmitter, indicator *IndicatorController, recorder Recorder, opts SamplingOptions, log *logger.Logger) *SamplingLoop {
	return &SamplingLoop{
		sensor:    sensor,
		tx:        tx,
		indicator: indicator,
		recorder:  orNopRecorder(recorder),
		opts:      opts.withDefaults(),
		log:       logger.OrNop(log).Named("sampler"),
		now:       time.Now,
	}
}

// Run cycles until the failure threshold is reached (ErrHalted), a cycle
// panics (*FaultError) or ctx is done.
func (l *SamplingLoop) Run(ctx context.Context) error {
	l.failures = 0
	l.log.Infow("sampling_started", "interval", l.opts.Interval, "failure_threshold", l.opts.FailureThreshold)
	for {
		res, err := l.runCycle(ctx)
		if err != nil {
			return err
		}
		if res.ConsecutiveFailures >= l.opts.FailureThreshold {
			l.indicator.Show(ctx, models.StateHalted)
			l.recorder.Halt(ctx, res.ConsecutiveFailures)
			l.log.Errorw("sampling_halted", "consecutive_failures", res.ConsecutiveFailures, "last_err", res.Err)
			return ErrHalted
		}
		if err := sleepCtx(ctx, l.opts.Interval); err != nil {
			return err
		}
	}
}

// ConsecutiveFailures is the current failure streak.
func (l *SamplingLoop) ConsecutiveFailures() int { return l.failures }

func (l *SamplingLoop) runCycle(ctx context.Context) (res CycleResult, err error) {
	l.cycle++
	res.Cycle = l.cycle
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Cycle: res.Cycle, Cause: r, Stack: debug.Stack()}
			l.log.Errorw("cycle_panicked", "cycle", res.Cycle, "panic", r)
		}
	}()

	reading, err := l.sample(ctx)
	if err != nil {
		res.Err = fmt.Errorf("sample: %w", err)
	} else {
		res.Reading = &reading
		status, terr := l.tx.Transmit(ctx, reading)
		res.Status = status
		switch {
		case terr != nil:
			res.Err = fmt.Errorf("transmit: %w", terr)
		case status != http.StatusCreated:
			res.Err = fmt.Errorf("%w: status %d", ErrUnexpectedStatus, status)
		}
	}
	if cerr := ctx.Err(); cerr != nil {
		return res, cerr
	}

	if res.Err == nil {
		l.failures = 0
		l.indicator.Show(ctx, models.StateReportingOK)
		l.log.Infow("reading_delivered", "cycle", res.Cycle,
			"temperature", reading.Temperature, "humidity", reading.Humidity)
	} else {
		l.failures++
		l.indicator.Show(ctx, models.StateReportingFailed)
		l.log.Warnw("reading_failed", "cycle", res.Cycle, "status", res.Status,
			"consecutive_failures", l.failures, "err", res.Err)
	}
	res.ConsecutiveFailures = l.failures
	l.recorder.Cycle(ctx, res)
	return res, nil
}

func (l *SamplingLoop) sample(ctx context.Context) (models.Reading, error) {
	t, h, err := l.sensor.Read(ctx)
	if err != nil {
		return models.Reading{}, err
	}
	r := models.Reading{Temperature: t, Humidity: h, TakenAt: l.now().UTC()}
	if !r.Finite() {
		return models.Reading{}, ErrInvalidReading
	}
	return r, nil
}
