// Package indicator holds the devices a node's indicator pattern can be
// shown on.
package indicator

import (
	"sync"

	"sensornode/internal/logger"
	"sensornode/internal/models"
)

// Log stands in for the LED on hosts without one: it logs every change.
type Log struct {
	log *logger.Logger

	mu   sync.Mutex
	last models.IndicatorPattern
}

func NewLog(log *logger.Logger) *Log {
	return &Log{log: logger.OrNop(log).Named("led")}
}

func (l *Log) SetPattern(p models.IndicatorPattern) error {
	l.mu.Lock()
	changed := p != l.last
	l.last = p
	l.mu.Unlock()
	if changed {
		l.log.Infow("indicator_pattern",
			"mode", p.Mode,
			"r", p.Color.R, "g", p.Color.G, "b", p.Color.B,
			"on", p.OnDuration, "off", p.OffDuration)
	}
	return nil
}
