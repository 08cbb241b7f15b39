package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#". It must be the last level of a filter.
	MultiWildcard = "#"
)

// Default topic names of a flameguard deployment. The sensor firmware and the
// rental backend publish to these names, so changing them breaks both.
const (
	// DefaultTelemetry carries sensor readings (Sensor -> Agent).
	DefaultTelemetry = "chomp_topic"

	// DefaultRental carries rental start/end notifications (Backend -> Agent).
	DefaultRental = "rental_topic"

	// DefaultControl carries operator commands (Operator -> Agent).
	DefaultControl = "control_topic"

	// DefaultStatus carries computed status records (Agent -> Consumers).
	DefaultStatus = "actuator_topic"

	// DefaultAvailability carries the retained online/offline marker of the agent.
	DefaultAvailability = "flameguard/availability"
)
