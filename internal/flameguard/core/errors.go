package core

import (
	"errors"
)

var (
	// ErrMalformedPayload is returned for payloads that cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnrecognizedNotification is returned for rental bodies that are neither a start nor an end.
	ErrUnrecognizedNotification = errors.New("unrecognized rental notification")
	// ErrUnknownTopic is returned for messages on a topic nobody routes.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrInactive is returned for operations that need an active rental.
	ErrInactive = errors.New("system is inactive")
	// ErrRentalActive is returned when a rental start is refused because one is running.
	ErrRentalActive = errors.New("a rental is already active")

	// ErrActuation wraps a failed device command.
	ErrActuation = errors.New("actuation failed")
	// ErrActuatorBusy is returned while a previous, timed-out command is still running.
	ErrActuatorBusy = errors.New("actuator busy")
	// ErrHazardPersists means a hazard was detected but power could not be cut.
	ErrHazardPersists = errors.New("hazard persists: power cutoff failed")

	// ErrForward wraps a failed delivery to the backend.
	ErrForward = errors.New("forward failed")
)

// ErrorKind groups errors for logging and metrics.
type ErrorKind string

const (
	KindNone      ErrorKind = "ok"
	KindMalformed ErrorKind = "malformed"
	KindRejected  ErrorKind = "rejected"
	KindHazard    ErrorKind = "hazard"
	KindActuation ErrorKind = "actuation"
	KindForward   ErrorKind = "forward"
	KindInternal  ErrorKind = "internal"
)

// Kind classifies err. A hazard outranks every other kind, so a joined error
// containing ErrHazardPersists is always KindHazard.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrHazardPersists):
		return KindHazard
	case errors.Is(err, ErrActuation), errors.Is(err, ErrActuatorBusy):
		return KindActuation
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrUnrecognizedNotification), errors.Is(err, ErrUnknownTopic):
		return KindMalformed
	case errors.Is(err, ErrInactive), errors.Is(err, ErrRentalActive):
		return KindRejected
	case errors.Is(err, ErrForward):
		return KindForward
	default:
		return KindInternal
	}
}
