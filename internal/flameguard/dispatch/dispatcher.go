// Package dispatch routes inbound messages to the aggregator, the safety
// controller and the rental lifecycle, and returns the records to publish.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/flameguard/internal/flameguard/aggregator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/flameguard/rental"
	"github.com/autopeer-io/flameguard/internal/flameguard/safety"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
	"github.com/autopeer-io/flameguard/pkg/log"
)

const (
	streamTelemetry = "telemetry"
	streamRental    = "rental"
	streamControl   = "control"
	streamUnknown   = "unknown"
)

// Topics are the fully qualified topic names the dispatcher routes.
type Topics struct {
	Telemetry string
	Rental    string
	Control   string
	Status    string
}

// Config wires a Dispatcher.
type Config struct {
	Topics     Topics
	Aggregator *aggregator.Aggregator
	Safety     *safety.Controller
	Rental     *rental.Manager
	Forwarder  core.Forwarder
	Clock      clock.PassiveClock
	Logger     log.Logger
}

// Dispatcher is the single entry point for inbound messages. Handle must be
// called from one goroutine only; Snapshot may be called from any.
type Dispatcher struct {
	topics    Topics
	agg       *aggregator.Aggregator
	safety    *safety.Controller
	rental    *rental.Manager
	forwarder core.Forwarder
	clock     clock.PassiveClock
	logger    log.Logger

	processed   uint64
	lastMessage time.Time
	lastErr     error
	lastErrAt   time.Time

	snapshot atomic.Pointer[Snapshot]
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		topics:    cfg.Topics,
		agg:       cfg.Aggregator,
		safety:    cfg.Safety,
		rental:    cfg.Rental,
		forwarder: cfg.Forwarder,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
	if d.clock == nil {
		d.clock = clock.RealClock{}
	}
	if d.logger == nil {
		d.logger = log.Std()
	}
	d.logger = d.logger.WithName("dispatch")
	d.publishSnapshot()
	return d
}

// Handle processes one inbound message and returns the messages to publish.
// Outbound records are returned even when err is non-nil; err describes what
// went wrong and can be classified with core.Kind.
func (d *Dispatcher) Handle(ctx context.Context, topic string, payload []byte) ([]core.Outbound, error) {
	now := d.clock.Now()

	var (
		out     []core.Outbound
		err     error
		dropped bool
	)

	stream := d.stream(topic)
	switch stream {
	case streamTelemetry:
		out, dropped, err = d.handleTelemetry(ctx, payload, now)
	case streamRental:
		err = d.handleRental(ctx, payload)
	case streamControl:
		err = d.handleControl(ctx, payload)
	default:
		err = fmt.Errorf("%w: %s", core.ErrUnknownTopic, topic)
	}

	result := string(core.Kind(err))
	if dropped {
		result = "dropped"
	}
	metrics.MessagesTotal.WithLabelValues(stream, result).Inc()
	metrics.BoolGauge(metrics.PowerCutoff, d.safety.PowerCutoff())

	d.processed++
	d.lastMessage = now
	if err != nil {
		d.lastErr, d.lastErrAt = err, now
	}
	d.publishSnapshot()

	return out, err
}

// Snapshot returns the state as of the last handled message.
func (d *Dispatcher) Snapshot() Snapshot {
	return *d.snapshot.Load()
}

// StatusTopic is where the returned records are meant to be published.
func (d *Dispatcher) StatusTopic() string {
	return d.topics.Status
}

func (d *Dispatcher) stream(topic string) string {
	switch topic {
	case d.topics.Telemetry:
		return streamTelemetry
	case d.topics.Rental:
		return streamRental
	case d.topics.Control:
		return streamControl
	default:
		return streamUnknown
	}
}

func (d *Dispatcher) handleRental(ctx context.Context, payload []byte) error {
	n, err := rental.ParseNotification(string(payload))
	if err != nil {
		return err
	}
	return d.rental.Handle(ctx, n)
}

func (d *Dispatcher) outbound(v any) (core.Outbound, bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		d.logger.Error(err, "Failed to encode status record")
		return core.Outbound{}, false
	}
	return core.Outbound{Topic: d.topics.Status, Payload: payload}, true
}

func (d *Dispatcher) publishSnapshot() {
	s := &Snapshot{
		State:       d.rental.State(),
		Session:     d.rental.Session(),
		PowerCutoff: d.safety.PowerCutoff(),
		Aggregator:  d.agg.Stats(),
		Processed:   d.processed,
	}
	if !d.lastMessage.IsZero() {
		t := d.lastMessage
		s.LastMessageAt = &t
	}
	if d.lastErr != nil {
		t := d.lastErrAt
		s.LastError = d.lastErr.Error()
		s.LastErrorKind = core.Kind(d.lastErr)
		s.LastErrorAt = &t
	}
	d.snapshot.Store(s)
}
