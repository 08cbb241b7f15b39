// Package aggregator turns the raw telemetry stream into flame status
// reports, flame alerts and temperature averages.
package aggregator

import (
	"math"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// EventType identifies what an Event reports.
type EventType string

const (
	EventFlameStatus        EventType = "flame_status"
	EventFlameAlert         EventType = "flame_alert"
	EventTemperatureAverage EventType = "temperature_average"
)

// Event is produced by Ingest.
type Event struct {
	Type EventType

	// FlameDetected is set on EventFlameStatus.
	FlameDetected bool

	// Temperature is the alert temperature on EventFlameAlert (nil when no
	// temperature was known) and the average on EventTemperatureAverage.
	Temperature *float64

	// FlameAlert is set on EventTemperatureAverage when the flame window is
	// over threshold at the time of the flush.
	FlameAlert bool
}

// Config holds the window sizes and thresholds.
type Config struct {
	TempBufferSize        int
	FlameWindow           int
	FlameThreshold        int
	FlamePublishFrequency int
}

// DefaultConfig returns the sizes used by the deployed sensors.
func DefaultConfig() Config {
	return Config{
		TempBufferSize:        10,
		FlameWindow:           8,
		FlameThreshold:        4,
		FlamePublishFrequency: 3,
	}
}

// Stats is a point-in-time view of the aggregator's buffers.
type Stats struct {
	BufferedTemperatures int `json:"buffered_temperatures"`
	FlameWindowSize      int `json:"flame_window_size"`
	FlameWindowPositives int `json:"flame_window_positives"`
	FlameStatusCounter   int `json:"flame_status_counter"`
}

// Aggregator holds the sliding state. It is not safe for concurrent use; the
// dispatcher owns it and calls it from a single goroutine.
type Aggregator struct {
	cfg Config

	temps        []float64
	window       *flameWindow
	flameCounter int
}

// New creates an Aggregator. Non-positive sizes fall back to the defaults.
func New(cfg Config) *Aggregator {
	def := DefaultConfig()
	if cfg.TempBufferSize <= 0 {
		cfg.TempBufferSize = def.TempBufferSize
	}
	if cfg.FlameWindow <= 0 {
		cfg.FlameWindow = def.FlameWindow
	}
	if cfg.FlamePublishFrequency <= 0 {
		cfg.FlamePublishFrequency = def.FlamePublishFrequency
	}

	return &Aggregator{
		cfg:    cfg,
		temps:  make([]float64, 0, cfg.TempBufferSize),
		window: newFlameWindow(cfg.FlameWindow),
	}
}

// Ingest applies one sample and returns the resulting events, always in the
// order flame status, flame alert, temperature average.
func (a *Aggregator) Ingest(s core.TelemetrySample) []Event {
	var events []Event

	if s.FlameDetected {
		a.flameCounter++
		if a.flameCounter >= a.cfg.FlamePublishFrequency {
			events = append(events, Event{Type: EventFlameStatus, FlameDetected: true})
			a.flameCounter = 0
		}
	}

	if s.Temperature != nil {
		a.temps = append(a.temps, *s.Temperature)
	}
	a.window.push(s.FlameDetected)

	if a.window.full() && a.window.positives > a.cfg.FlameThreshold {
		events = append(events, Event{Type: EventFlameAlert, Temperature: a.alertTemperature(s)})
		a.window.reset()
	}

	if len(a.temps) >= a.cfg.TempBufferSize {
		avg := round2(mean(a.temps))
		events = append(events, Event{
			Type:        EventTemperatureAverage,
			Temperature: &avg,
			FlameAlert:  a.window.positives > a.cfg.FlameThreshold,
		})
		a.temps = a.temps[:0]
	}

	return events
}

// alertTemperature is the buffer mean, or the sample's own temperature when
// the buffer is empty.
func (a *Aggregator) alertTemperature(s core.TelemetrySample) *float64 {
	if len(a.temps) > 0 {
		v := round2(mean(a.temps))
		return &v
	}
	if s.Temperature != nil {
		v := *s.Temperature
		return &v
	}
	return nil
}

// Reset clears every buffer and counter.
func (a *Aggregator) Reset() {
	a.temps = a.temps[:0]
	a.ResetFlame()
}

// ResetFlame clears the flame window and the flame status counter but keeps
// buffered temperatures.
func (a *Aggregator) ResetFlame() {
	a.window.reset()
	a.flameCounter = 0
}

// Stats reports the current fill levels.
func (a *Aggregator) Stats() Stats {
	return Stats{
		BufferedTemperatures: len(a.temps),
		FlameWindowSize:      a.window.count,
		FlameWindowPositives: a.window.positives,
		FlameStatusCounter:   a.flameCounter,
	}
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
