package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

var ErrConnectTimeout = errors.New("network connect timed out")

const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 10
)

type ConnectOptions struct {
	PollInterval time.Duration
	MaxAttempts  int // failed polls tolerated before giving up
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.PollInterval < 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// ConnectivityManager brings one network stack up. A new manager is built
// for every boot together with a fresh stack.
type ConnectivityManager struct {
	stack     NetworkStack
	indicator *IndicatorController
	opts      ConnectOptions
	log       *logger.Logger
}

func NewConnectivityManager(stack NetworkStack, indicator *IndicatorController, opts ConnectOptions, log *logger.Logger) *ConnectivityManager {
	return &ConnectivityManager{
		stack:     stack,
		indicator: indicator,
		opts:      opts.withDefaults(),
		log:       logger.OrNop(log).Named("network"),
	}
}

// Connect joins the network and polls until the link is up. It tolerates
// MaxAttempts failed polls, spaced PollInterval apart; the next failure
// returns ErrConnectTimeout. A rejected join request counts as a failed
// poll and is retried on the next attempt.
func (m *ConnectivityManager) Connect(ctx context.Context, creds models.Credentials) error {
	m.indicator.Show(ctx, models.StateConnectingNetwork)
	m.log.Infow("network_connecting", "ssid", creds.SSID, "max_attempts", m.opts.MaxAttempts)

	joined := false
	failed := 0
	for {
		if !joined {
			if err := m.stack.Connect(ctx, creds); err != nil {
				m.log.Warnw("network_join_failed", "attempt", failed+1, "err", err)
			} else {
				joined = true
			}
		}
		if joined && m.stack.Connected(ctx) {
			m.indicator.Show(ctx, models.StateNetworkConnected)
			m.log.Infow("network_connected", "failed_polls", failed)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		failed++
		if failed > m.opts.MaxAttempts {
			m.log.Warnw("network_connect_timeout", "failed_polls", failed)
			return fmt.Errorf("%w after %d failed polls", ErrConnectTimeout, failed)
		}
		if err := sleepCtx(ctx, m.opts.PollInterval); err != nil {
			return err
		}
	}
}
