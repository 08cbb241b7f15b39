// Package flameguard assembles the hazard monitoring agent: it feeds MQTT
// messages one at a time through the dispatcher and publishes the results.
package flameguard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/flameguard/dispatch"
	"github.com/autopeer-io/flameguard/internal/flameguard/hub"
	"github.com/autopeer-io/flameguard/internal/flameguard/server"
	"github.com/autopeer-io/flameguard/pkg/log"
)

// Components are the parts an Agent runs.
type Components struct {
	Actuator   core.Actuator
	Dispatcher *dispatch.Dispatcher
	Hub        *hub.Hub
	// Server is optional.
	Server *server.Server

	PowerOffOnStartup bool
	Logger            log.Logger
}

type Agent struct {
	actuator          core.Actuator
	dispatcher        *dispatch.Dispatcher
	hub               *hub.Hub
	server            *server.Server
	powerOffOnStartup bool
	logger            log.Logger
}

func NewAgent(c Components) *Agent {
	logger := c.Logger
	if logger == nil {
		logger = log.Std()
	}
	return &Agent{
		actuator:          c.Actuator,
		dispatcher:        c.Dispatcher,
		hub:               c.Hub,
		server:            c.Server,
		powerOffOnStartup: c.PowerOffOnStartup,
		logger:            logger.WithName("agent"),
	}
}

// Run prepares the plug, connects to the broker and processes messages until
// ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("Starting flameguard agent", "statusTopic", a.dispatcher.StatusTopic())

	a.prepareDevice(ctx)

	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt hub: %w", err)
	}
	defer a.hub.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.loop(ctx)
	})
	if a.server != nil {
		g.Go(func() error {
			return a.server.Start(ctx)
		})
	}

	err := g.Wait()
	a.logger.Info("Agent shutting down...")
	return err
}

// prepareDevice reports the plug state and switches it off, so that nothing
// is powered until a rental starts. Failures are logged only.
func (a *Agent) prepareDevice(ctx context.Context) {
	st, err := a.actuator.Status(ctx)
	if err != nil {
		a.logger.Warn("Smart plug status unavailable", "error", err)
	} else {
		a.logger.Info("Smart plug status", "on", st.On, "realtime", st.Realtime)
	}

	if !a.powerOffOnStartup {
		return
	}
	if err := a.actuator.PowerOff(ctx); err != nil {
		a.logger.Warn("Startup power off failed", "error", err)
		return
	}
	a.logger.Info("Smart plug switched off on startup")
}

// loop is the only caller of the dispatcher, so messages are handled one
// after another in arrival order.
func (a *Agent) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-a.hub.Inbox():
			a.process(ctx, msg)
		}
	}
}

func (a *Agent) process(ctx context.Context, msg hub.Message) {
	out, err := a.dispatcher.Handle(ctx, msg.Topic, msg.Payload)

	for _, o := range out {
		if perr := a.hub.Publish(ctx, o); perr != nil {
			a.logger.Error(perr, "Failed to publish status", "topic", o.Topic)
		}
	}

	a.report(msg.Topic, err)
}

func (a *Agent) report(topic string, err error) {
	kind := core.Kind(err)
	switch kind {
	case core.KindNone:
	case core.KindHazard:
		a.logger.Error(err, "Hazard persists, power could not be cut", "topic", topic, "hazard", true)
	case core.KindMalformed, core.KindRejected:
		a.logger.Warn("Message rejected", "topic", topic, "kind", string(kind), "error", err)
	default:
		a.logger.Error(err, "Message handling failed", "topic", topic, "kind", string(kind))
	}
}
