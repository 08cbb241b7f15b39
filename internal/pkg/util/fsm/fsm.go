// Package fsm adapts error-returning functions to looplab/fsm callbacks.
package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// EventFunc is a state machine callback that can fail.
type EventFunc func(ctx context.Context, event *fsm.Event) error

// WrapEvent records a failure of fn on the event, so that it is returned by
// FSM.Event. The transition itself is not stopped; use WrapGuard for that.
func WrapEvent(fn EventFunc) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// WrapGuard cancels the transition when fn fails. It is meant for
// "before_<event>" callbacks.
func WrapGuard(fn EventFunc) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}
