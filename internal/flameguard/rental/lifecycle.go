// Package rental tracks whether the box is rented and keeps the power and
// the hazard state consistent with it.
package rental

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/flameguard/internal/pkg/util/fsm"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

const (
	// EventStart (Inactive|Active -> Active) begins or replaces a rental.
	EventStart = "start"
	// EventEnd (Active -> Inactive) finishes the rental.
	EventEnd = "end"
)

// Resetter is implemented by every piece of per-rental state.
type Resetter interface {
	Reset()
}

// Manager owns the activation state and the current rental session. It is
// not safe for concurrent use.
type Manager struct {
	fsm *fsm.FSM

	actuator  core.Actuator
	resetters []Resetter
	policy    string
	clock     clock.PassiveClock
	logger    log.Logger

	session *core.RentalSession
}

// Config wires a Manager.
type Config struct {
	Actuator core.Actuator
	// Resetters are cleared on every rental start and end.
	Resetters []Resetter
	// Policy is options.RentalPolicyReplace (default) or options.RentalPolicyReject.
	Policy string
	Clock  clock.PassiveClock
	Logger log.Logger
}

// NewManager creates a Manager in the inactive state.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		actuator:  cfg.Actuator,
		resetters: cfg.Resetters,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
	if m.policy == "" {
		m.policy = options.RentalPolicyReplace
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.logger == nil {
		m.logger = log.Std()
	}
	m.logger = m.logger.WithName("rental")

	states := []string{string(core.StateInactive), string(core.StateActive)}
	events := fsm.Events{
		{Name: EventStart, Src: states, Dst: string(core.StateActive)},
		{Name: EventEnd, Src: []string{string(core.StateActive)}, Dst: string(core.StateInactive)},
	}

	callbacks := fsm.Callbacks{
		// Guards (before_...) perform the device command and cancel on failure.
		"before_" + EventStart: fsmutil.WrapGuard(m.guardStart),
		"before_" + EventEnd:   fsmutil.WrapEvent(m.beforeEnd),

		"enter_" + string(core.StateActive):   fsmutil.WrapEvent(m.enterActive),
		"enter_" + string(core.StateInactive): fsmutil.WrapEvent(m.enterInactive),
	}

	m.fsm = fsm.NewFSM(string(core.StateInactive), events, callbacks)
	return m
}

// State returns the current activation state.
func (m *Manager) State() core.ActivationState {
	return core.ActivationState(m.fsm.Current())
}

// Session returns a copy of the active session, or nil.
func (m *Manager) Session() *core.RentalSession {
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Handle applies a parsed notification.
func (m *Manager) Handle(ctx context.Context, n Notification) error {
	switch n.Kind {
	case NotificationStarted:
		return m.Start(ctx, n.User, n.BoxID)
	case NotificationEnded:
		return m.End(ctx, "rental ended")
	default:
		return fmt.Errorf("%w: kind %q", core.ErrUnrecognizedNotification, n.Kind)
	}
}

// Start begins a rental: all per-rental state is reset and the plug switched
// on. The manager becomes active only if the plug switched on. Starting while
// active replaces the session or is rejected, depending on the policy; a
// replacement whose power-on fails leaves the manager inactive.
func (m *Manager) Start(ctx context.Context, user, boxID string) error {
	replacing := m.State() == core.StateActive
	if replacing && m.policy == options.RentalPolicyReject {
		m.logger.Warn("Rental start rejected, a rental is already active",
			"user", user, "boxID", boxID, "activeUser", m.session.User)
		return fmt.Errorf("start rental for %s: %w", user, core.ErrRentalActive)
	}

	session := core.RentalSession{
		ID:        uuid.NewString(),
		User:      user,
		BoxID:     boxID,
		StartTime: m.clock.Now(),
	}

	var cause error
	err := m.fsm.Event(ctx, EventStart, session, &cause)
	if err == nil || isNoTransition(err) {
		if replacing {
			m.logger.Info("Rental replaced", "sessionID", session.ID, "user", user, "boxID", boxID)
		}
		return nil
	}
	if cause == nil {
		cause = err
	}

	if replacing {
		m.logger.Error(cause, "Replacing rental failed, deactivating")
		_ = m.End(ctx, "replacement failed")
	}
	return fmt.Errorf("start rental for %s: %w", user, cause)
}

// End finishes the active rental. Ending while inactive is a no-op.
func (m *Manager) End(ctx context.Context, reason string) error {
	if m.State() != core.StateActive {
		m.logger.Debug("End requested while inactive", "reason", reason)
		return nil
	}
	if err := m.fsm.Event(ctx, EventEnd, reason); err != nil && !isNoTransition(err) {
		return fmt.Errorf("end rental: %w", err)
	}
	return nil
}

// guardStart resets state and powers the box on. The transition is cancelled
// when the plug cannot be switched on.
func (m *Manager) guardStart(ctx context.Context, e *fsm.Event) error {
	session := e.Args[0].(core.RentalSession)
	cause := e.Args[1].(*error)

	m.resetAll()
	m.session = nil

	if err := m.actuator.PowerOn(ctx); err != nil {
		m.logger.Error(err, "Power on failed, rental not activated", "user", session.User, "boxID", session.BoxID)
		*cause = err
		return err
	}

	m.session = &session
	return nil
}

// beforeEnd switches the plug off on a best-effort basis and clears the
// rental. A failed power-off never blocks the transition.
func (m *Manager) beforeEnd(ctx context.Context, e *fsm.Event) error {
	reason, _ := e.Args[0].(string)

	if err := m.actuator.PowerOff(ctx); err != nil {
		m.logger.Error(err, "Power off failed while ending rental", "reason", reason)
	}

	var user string
	if m.session != nil {
		user = m.session.User
	}
	m.session = nil
	m.resetAll()

	m.logger.Info("Rental ended", "reason", reason, "user", user)
	return nil
}

func (m *Manager) enterActive(_ context.Context, _ *fsm.Event) error {
	metrics.BoolGauge(metrics.ActivationState, true)
	m.logger.Info("Rental started", "sessionID", m.session.ID, "user", m.session.User, "boxID", m.session.BoxID)
	return nil
}

func (m *Manager) enterInactive(_ context.Context, _ *fsm.Event) error {
	metrics.BoolGauge(metrics.ActivationState, false)
	return nil
}

func (m *Manager) resetAll() {
	for _, r := range m.resetters {
		r.Reset()
	}
}

func isNoTransition(err error) bool {
	var nte fsm.NoTransitionError
	return errors.As(err, &nte)
}
