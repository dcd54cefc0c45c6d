package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrWindowClosed = errors.New("startup window is closed")

// StartupGate is the pause at the start of every boot. While the window is
// open an operator may Hold it, which keeps the node from proceeding until
// Release.
type StartupGate struct {
	mu      sync.Mutex
	open    bool
	held    bool
	release chan struct{}
}

func NewStartupGate() *StartupGate {
	return &StartupGate{}
}

// Wait opens the window for d, then blocks while the gate is held.
func (g *StartupGate) Wait(ctx context.Context, d time.Duration) error {
	g.mu.Lock()
	g.open = true
	g.held = false
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.open = false
		g.held = false
		g.mu.Unlock()
	}()

	if err := sleepCtx(ctx, d); err != nil {
		return err
	}

	g.mu.Lock()
	held, release := g.held, g.release
	g.mu.Unlock()
	if !held {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-release:
		return nil
	}
}

func (g *StartupGate) Hold() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return ErrWindowClosed
	}
	if !g.held {
		g.held = true
		g.release = make(chan struct{})
	}
	return nil
}

func (g *StartupGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		g.held = false
		close(g.release)
	}
}

func (g *StartupGate) WindowOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

func (g *StartupGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
