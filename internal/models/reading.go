package models

import (
	"math"
	"time"
)

// Reading is one sensor sample. Produced once per cycle, sent once, discarded.
type Reading struct {
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %RH
	TakenAt     time.Time `json:"taken_at"`
}

// Finite reports whether both measurements are real numbers.
func (r Reading) Finite() bool {
	return !math.IsNaN(r.Temperature) && !math.IsInf(r.Temperature, 0) &&
		!math.IsNaN(r.Humidity) && !math.IsInf(r.Humidity, 0)
}

// Credentials are the network name and secret used to join the network.
type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"-"`
}
