package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

var ErrRestartRequired = errors.New("device restart required")

// RestartPolicy decides what a restart means for the process.
type RestartPolicy int

const (
	// RestartInProcess re-enters the boot sequence after RestartDelay.
	RestartInProcess RestartPolicy = iota
	// RestartExit returns ErrRestartRequired so a process supervisor can
	// start the node from scratch.
	RestartExit
)

// NetworkFactory builds a fresh network stack for one boot.
type NetworkFactory func(ctx context.Context) (NetworkStack, error)

type DeviceOptions struct {
	ID           string
	Credentials  models.Credentials
	StartupDelay time.Duration
	RestartDelay time.Duration
	Restart      RestartPolicy
	Connect      ConnectOptions
	Sampling     SamplingOptions
}

type DeviceDeps struct {
	Indicator  *IndicatorController
	Gate       *StartupGate
	NewNetwork NetworkFactory
	Sensor     Sensor
	Tx         Transmitter
	Reporter   *ErrorReporter
	Recorder   Recorder
	Log        *logger.Logger
}

// Device is the top-level supervisor: boot, connect, sample, and restart
// on connect timeout or unexpected fault. A halted device stays halted
// until ctx is done.
type Device struct {
	opts DeviceOptions
	deps DeviceDeps
	log  *logger.Logger

	boots int
}

func NewDevice(opts DeviceOptions, deps DeviceDeps) *Device {
	if deps.Gate == nil {
		deps.Gate = NewStartupGate()
	}
	deps.Recorder = orNopRecorder(deps.Recorder)
	return &Device{
		opts: opts,
		deps: deps,
		log:  logger.OrNop(deps.Log).Named("device"),
	}
}

// Run returns ctx.Err() on shutdown, or ErrRestartRequired under
// RestartExit.
func (d *Device) Run(ctx context.Context) error {
	for {
		err := d.Boot(ctx)
		if cerr := ctx.Err(); cerr != nil {
			d.log.Infow("device_stopped", "boots", d.boots)
			return cerr
		}

		switch {
		case errors.Is(err, ErrHalted):
			d.log.Errorw("device_halted", "boots", d.boots)
			<-ctx.Done()
			return ctx.Err()
		case errors.Is(err, ErrConnectTimeout):
			d.log.Warnw("device_restart", "reason", "network", "err", err)
		default:
			if err == nil {
				err = errors.New("sampling loop exited without error")
			}
			d.handleFault(ctx, err)
		}

		d.deps.Recorder.Restart(ctx, err)
		if d.opts.Restart == RestartExit {
			return fmt.Errorf("%w: %w", ErrRestartRequired, err)
		}
		if serr := sleepCtx(ctx, d.opts.RestartDelay); serr != nil {
			return serr
		}
	}
}

// Boot runs one boot sequence to its end.
func (d *Device) Boot(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Cause: r, Stack: debug.Stack()}
		}
	}()

	d.boots++
	d.deps.Recorder.Boot(ctx, d.boots)
	d.deps.Indicator.Show(ctx, models.StateStarting)
	d.log.Infow("device_starting", "device_id", d.opts.ID, "boot", d.boots, "startup_delay", d.opts.StartupDelay)

	if err := d.deps.Gate.Wait(ctx, d.opts.StartupDelay); err != nil {
		return err
	}

	stack, err := d.deps.NewNetwork(ctx)
	if err != nil {
		return fmt.Errorf("init network stack: %w", err)
	}
	if c, ok := stack.(io.Closer); ok {
		defer c.Close()
	}

	cm := NewConnectivityManager(stack, d.deps.Indicator, d.opts.Connect, d.log)
	if err := cm.Connect(ctx, d.opts.Credentials); err != nil {
		return err
	}

	loop := NewSamplingLoop(d.deps.Sensor, d.deps.Tx, d.deps.Indicator, d.deps.Recorder, d.opts.Sampling, d.log)
	return loop.Run(ctx)
}

// Boots is the number of boot sequences started so far.
func (d *Device) Boots() int { return d.boots }

func (d *Device) handleFault(ctx context.Context, fault error) {
	d.log.Errorw("device_fault", "err", fault)
	d.deps.Recorder.Fault(ctx, fault)
	if d.deps.Reporter != nil {
		d.deps.Reporter.Report(ctx, fault)
	}
	d.deps.Indicator.Show(ctx, models.StateUnexpectedFault)
}
