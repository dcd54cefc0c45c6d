package indicator

import (
	"sync"

	"sensornode/internal/models"
)

// Hub fans indicator patterns out to subscribers, typically websocket
// clients of the debug console. It remembers the last pattern so new
// subscribers start in sync. Slow subscribers only ever see the latest
// pattern; SetPattern never blocks.
type Hub struct {
	mu      sync.Mutex
	current models.IndicatorPattern
	set     bool
	subs    map[chan models.IndicatorPattern]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan models.IndicatorPattern]struct{})}
}

func (h *Hub) SetPattern(p models.IndicatorPattern) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current, h.set = p, true
	for ch := range h.subs {
		offer(ch, p)
	}
	return nil
}

// Current returns the last pattern and whether one was ever set.
func (h *Hub) Current() (models.IndicatorPattern, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.set
}

// Subscribe returns a channel receiving the current pattern (if any) and
// every later change, plus a func that ends the subscription.
func (h *Hub) Subscribe() (<-chan models.IndicatorPattern, func()) {
	ch := make(chan models.IndicatorPattern, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.set {
		ch <- h.current
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// offer replaces any unread pattern with p.
func offer(ch chan models.IndicatorPattern, p models.IndicatorPattern) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}
