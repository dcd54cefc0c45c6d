// Package netlink provides the network stacks the node can boot with.
package netlink

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

const defaultProbeTimeout = 2 * time.Second

// Probe treats the link as up when a TCP connection to the probe address
// succeeds. Joining the network itself is left to the host OS; Connect
// only records the credentials it was asked to use.
type Probe struct {
	address string
	timeout time.Duration
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
	log     *logger.Logger

	mu     sync.Mutex
	ssid   string
	joined bool
}

func NewProbe(address string, timeout time.Duration, log *logger.Logger) (*Probe, error) {
	if address == "" {
		return nil, errors.New("probe network: address required")
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	d := &net.Dialer{Timeout: timeout}
	return &Probe{
		address: address,
		timeout: timeout,
		dialer:  d.DialContext,
		log:     logger.OrNop(log).Named("netlink"),
	}, nil
}

func (p *Probe) Connect(_ context.Context, creds models.Credentials) error {
	if creds.SSID == "" {
		return errors.New("probe network: empty ssid")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ssid, p.joined = creds.SSID, true
	p.log.Debugw("network_join_requested", "ssid", creds.SSID)
	return nil
}

func (p *Probe) Connected(ctx context.Context) bool {
	p.mu.Lock()
	joined := p.joined
	p.mu.Unlock()
	if !joined {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dialer(ctx, "tcp", p.address)
	if err != nil {
		p.log.Debugw("network_probe_failed", "address", p.address, "err", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Close forgets the join so a stale stack never reports connected.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined = false
	return nil
}
