package sensor

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"sensornode/internal/config"
)

// Simulation defaults.
const (
	DefaultAmbientC    = 21.0
	DefaultHumidityPct = 45.0
	DefaultNoise       = 0.3
	// pull toward ambient per read, as a fraction of the distance
	driftFactor = 0.1
)

var ErrSimulatedFault = errors.New("simulated sensor fault")

// Sim is a random-walk sensor that drifts back toward ambient and fails
// at the configured rate.
type Sim struct {
	cfg config.SensorSimConfig

	mu   sync.Mutex
	rng  *rand.Rand
	temp float64
	hum  float64
}

func NewSim(cfg config.SensorSimConfig, seed uint64) *Sim {
	if cfg.AmbientC == 0 {
		cfg.AmbientC = DefaultAmbientC
	}
	if cfg.HumidityPct == 0 {
		cfg.HumidityPct = DefaultHumidityPct
	}
	if cfg.Noise == 0 {
		cfg.Noise = DefaultNoise
	}
	return &Sim{
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temp: cfg.AmbientC,
		hum:  cfg.HumidityPct,
	}
}

func (s *Sim) Read(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		return 0, 0, ErrSimulatedFault
	}

	s.temp = walk(s.temp, s.cfg.AmbientC, s.cfg.Noise, s.rng)
	s.hum = clamp(walk(s.hum, s.cfg.HumidityPct, s.cfg.Noise*2, s.rng), 0, 100)
	return s.temp, s.hum, nil
}

func walk(v, center, noise float64, rng *rand.Rand) float64 {
	v += noise * (rng.Float64()*2 - 1)
	return v + (center-v)*driftFactor
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
