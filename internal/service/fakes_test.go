package service

import (
	"context"
	"errors"
	"sync"

	"sensornode/internal/models"
)

// recIndicator records every pattern it is asked to show.
type recIndicator struct {
	mu       sync.Mutex
	patterns []models.IndicatorPattern
	err      error
}

func (r *recIndicator) SetPattern(p models.IndicatorPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, p)
	return r.err
}

func (r *recIndicator) all() []models.IndicatorPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.IndicatorPattern(nil), r.patterns...)
}

func (r *recIndicator) last() models.IndicatorPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.patterns) == 0 {
		return models.IndicatorPattern{}
	}
	return r.patterns[len(r.patterns)-1]
}

// fakeStack reports the link down for the first downPolls polls.
type fakeStack struct {
	mu          sync.Mutex
	downPolls   int
	joinErrs    int
	joinCalls   int
	polls       int
	closed      bool
	gotSSID     string
	gotPassword string
}

func (s *fakeStack) Connect(_ context.Context, creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinCalls++
	s.gotSSID, s.gotPassword = creds.SSID, creds.Password
	if s.joinCalls <= s.joinErrs {
		return errors.New("radio busy")
	}
	return nil
}

func (s *fakeStack) Connected(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	return s.polls > s.downPolls
}

func (s *fakeStack) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// funcSensor adapts a function to Sensor.
type funcSensor func(ctx context.Context) (float64, float64, error)

func (f funcSensor) Read(ctx context.Context) (float64, float64, error) { return f(ctx) }

func steadySensor() funcSensor {
	return func(context.Context) (float64, float64, error) { return 21.5, 40, nil }
}

type txStep struct {
	status int
	err    error
}

// scriptTx replays steps, then keeps answering 201.
type scriptTx struct {
	mu    sync.Mutex
	steps []txStep
	sent  []models.Reading
	hook  func(n int)
}

func (s *scriptTx) Transmit(_ context.Context, r models.Reading) (int, error) {
	s.mu.Lock()
	s.sent = append(s.sent, r)
	n := len(s.sent)
	var step txStep
	if n <= len(s.steps) {
		step = s.steps[n-1]
	} else {
		step = txStep{status: 201}
	}
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return step.status, step.err
}

func (s *scriptTx) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeSink struct {
	mu       sync.Mutex
	messages []string
	status   int
	err      error
	panicMsg string
	hook     func()
}

func (f *fakeSink) PostLog(_ context.Context, msg string) (int, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.status, f.err
}

func (f *fakeSink) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// memRecorder keeps everything the control loop reports.
type memRecorder struct {
	mu          sync.Mutex
	boots       []int
	transitions [][2]models.DeviceState
	cycles      []CycleResult
	halts       []int
	restarts    []error
	faults      []error
	onHalt      func()
}

func (m *memRecorder) Boot(_ context.Context, boot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boots = append(m.boots, boot)
}

func (m *memRecorder) Transition(_ context.Context, from, to models.DeviceState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, [2]models.DeviceState{from, to})
}

func (m *memRecorder) Cycle(_ context.Context, res CycleResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = append(m.cycles, res)
}

func (m *memRecorder) Halt(_ context.Context, failures int) {
	m.mu.Lock()
	m.halts = append(m.halts, failures)
	hook := m.onHalt
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (m *memRecorder) Restart(_ context.Context, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarts = append(m.restarts, cause)
}

func (m *memRecorder) Fault(_ context.Context, fault error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = append(m.faults, fault)
}

func (m *memRecorder) failureCounts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.cycles))
	for _, c := range m.cycles {
		out = append(out, c.ConsecutiveFailures)
	}
	return out
}
