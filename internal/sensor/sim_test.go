package sensor

import (
	"context"
	"testing"

	"sensornode/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_StaysNearAmbient(t *testing.T) {
	s := NewSim(config.SensorSimConfig{AmbientC: 18, HumidityPct: 60, Noise: 0.5}, 42)

	for i := 0; i < 500; i++ {
		temp, hum, err := s.Read(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 18, temp, 5)
		assert.GreaterOrEqual(t, hum, 0.0)
		assert.LessOrEqual(t, hum, 100.0)
	}
}

func TestSim_FailureRate(t *testing.T) {
	always := NewSim(config.SensorSimConfig{FailureRate: 1}, 1)
	_, _, err := always.Read(context.Background())
	require.ErrorIs(t, err, ErrSimulatedFault)

	never := NewSim(config.SensorSimConfig{}, 1)
	for i := 0; i < 100; i++ {
		_, _, err := never.Read(context.Background())
		require.NoError(t, err)
	}
}

func TestSim_DeterministicForSeed(t *testing.T) {
	a := NewSim(config.SensorSimConfig{}, 7)
	b := NewSim(config.SensorSimConfig{}, 7)
	for i := 0; i < 10; i++ {
		ta, ha, _ := a.Read(context.Background())
		tb, hb, _ := b.Read(context.Background())
		assert.Equal(t, ta, tb)
		assert.Equal(t, ha, hb)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-3, 0, 100))
	assert.Equal(t, 100.0, clamp(130, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}
