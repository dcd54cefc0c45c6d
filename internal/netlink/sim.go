package netlink

import (
	"context"
	"sync"

	"sensornode/internal/models"
)

// Sim reports the link up after a fixed number of failed polls. A negative
// count never connects.
type Sim struct {
	mu           sync.Mutex
	connectAfter int
	polls        int
	joined       bool
}

func NewSim(connectAfter int) *Sim {
	return &Sim{connectAfter: connectAfter}
}

func (s *Sim) Connect(context.Context, models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = true
	return nil
}

func (s *Sim) Connected(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joined || s.connectAfter < 0 {
		return false
	}
	s.polls++
	return s.polls > s.connectAfter
}
