package core

import (
	"time"
)

// TelemetrySample is one decoded sensor reading.
type TelemetrySample struct {
	// Temperature is nil when the reading carried no temperature.
	Temperature   *float64
	FlameDetected bool
	DeviceID      string
	ReceivedAt    time.Time
}

// RentalSession describes the rental currently holding the box.
type RentalSession struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	BoxID     string    `json:"box_id"`
	StartTime time.Time `json:"start_time"`
}

// ActivationState tells whether telemetry is processed and power may be on.
type ActivationState string

const (
	StateInactive ActivationState = "inactive"
	StateActive   ActivationState = "active"
)

func (s ActivationState) String() string { return string(s) }

// PlugStatus is what the actuator reports about the smart plug.
type PlugStatus struct {
	On bool `json:"on"`
	// Realtime is the energy meter reading as reported by the plug, if any.
	Realtime string `json:"realtime,omitempty"`
}

// Outbound is a message the dispatcher wants published.
type Outbound struct {
	Topic   string
	Payload []byte
}
