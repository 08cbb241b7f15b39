package core

import (
	"context"
)

// Actuator switches the box power. Implementations report their own I/O
// failures as errors and must honour ctx cancellation where they can.
type Actuator interface {
	PowerOn(ctx context.Context) error
	PowerOff(ctx context.Context) error
	Status(ctx context.Context) (PlugStatus, error)
}

// Forwarder pushes computed results to the backend. Calls are fire-and-forget
// from the caller's perspective: failures are logged, never retried.
type Forwarder interface {
	SendTemperature(ctx context.Context, value float64) error
	SendFlameAlert(ctx context.Context) error
}

// Publisher delivers outbound messages to the transport.
type Publisher interface {
	Publish(ctx context.Context, msg Outbound) error
}
