package dispatch

import (
	"time"

	"github.com/autopeer-io/flameguard/internal/flameguard/aggregator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// ActuatorStatus is published for every temperature average and flame alert.
type ActuatorStatus struct {
	// AverageTemperature is null when an alert fired before any temperature was known.
	AverageTemperature *float64 `json:"average_temperature"`
	FlameAlert         bool     `json:"flame_alert"`
	PowerCutoff        bool     `json:"power_cutoff"`
	// HazardUnmitigated is set when a flame alert could not cut the power.
	HazardUnmitigated bool                `json:"hazard_unmitigated,omitempty"`
	RentalInfo        *core.RentalSession `json:"rental_info,omitempty"`
}

// FlameStatus is published every few positive flame readings.
type FlameStatus struct {
	FlameDetected bool                `json:"flame_detected"`
	PowerCutoff   bool                `json:"power_cutoff"`
	RentalInfo    *core.RentalSession `json:"rental_info,omitempty"`
}

// Snapshot is a read-only view of the dispatcher state, safe to hand to
// other goroutines.
type Snapshot struct {
	State         core.ActivationState `json:"state"`
	Session       *core.RentalSession  `json:"session,omitempty"`
	PowerCutoff   bool                 `json:"power_cutoff"`
	Aggregator    aggregator.Stats     `json:"aggregator"`
	Processed     uint64               `json:"processed"`
	LastMessageAt *time.Time           `json:"last_message_at,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	LastErrorKind core.ErrorKind       `json:"last_error_kind,omitempty"`
	LastErrorAt   *time.Time           `json:"last_error_at,omitempty"`
}
