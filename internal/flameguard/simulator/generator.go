// Package simulator publishes synthetic sensor readings, for trying the
// agent without hardware.
package simulator

import (
	"math"
	"math/rand/v2"
)

// Reading is the telemetry payload sent by the sensors.
type Reading struct {
	Temperature *float64 `json:"temperature,omitempty"`
	ID          string   `json:"id"`
	Flame       bool     `json:"flame"`
}

// Profile describes the simulated sensor.
type Profile struct {
	DeviceID string
	// BaseTemperature and Jitter bound the temperatures produced: base ± jitter.
	BaseTemperature float64
	Jitter          float64
	// FlameRatio is the probability, in [0, 1], of a positive flame reading.
	FlameRatio float64
	// MissingTemperatureRatio is the probability of a reading without temperature.
	MissingTemperatureRatio float64
}

// Generator produces readings. It is not safe for concurrent use.
type Generator struct {
	profile Profile
	rnd     *rand.Rand
}

// NewGenerator creates a Generator. The same seed yields the same sequence.
func NewGenerator(p Profile, seed uint64) *Generator {
	return &Generator{
		profile: p,
		rnd:     rand.New(rand.NewPCG(seed, seed^0x5DEECE66D)),
	}
}

func (g *Generator) Next() Reading {
	r := Reading{
		ID:    g.profile.DeviceID,
		Flame: g.rnd.Float64() < g.profile.FlameRatio,
	}

	if g.rnd.Float64() >= g.profile.MissingTemperatureRatio {
		t := g.profile.BaseTemperature + (g.rnd.Float64()*2-1)*g.profile.Jitter
		t = math.Round(t*10) / 10
		r.Temperature = &t
	}

	return r
}
