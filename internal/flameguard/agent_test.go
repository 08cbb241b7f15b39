package flameguard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/internal/flameguard/actuator"
	"github.com/autopeer-io/flameguard/internal/flameguard/aggregator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/flameguard/dispatch"
	"github.com/autopeer-io/flameguard/internal/flameguard/forwarder"
	"github.com/autopeer-io/flameguard/internal/flameguard/hub"
	"github.com/autopeer-io/flameguard/internal/flameguard/rental"
	"github.com/autopeer-io/flameguard/internal/flameguard/safety"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
	"github.com/autopeer-io/flameguard/pkg/options"
)

// brokerStub is an in-memory mqtt.Client.
type brokerStub struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.MessageHandler
	published []core.Outbound
	stopped   bool
}

func (b *brokerStub) Start(context.Context) error           { return nil }
func (b *brokerStub) AwaitConnection(context.Context) error { return nil }
func (b *brokerStub) IsConnected() bool                     { return true }
func (b *brokerStub) Unsubscribe(context.Context, string) error {
	return nil
}

func (b *brokerStub) Disconnect(context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *brokerStub) Subscribe(_ context.Context, topic string, _ int, h mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = map[string]mqtt.MessageHandler{}
	}
	b.handlers[topic] = h
	return nil
}

func (b *brokerStub) Publish(_ context.Context, topic string, _ int, _ bool, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, core.Outbound{Topic: topic, Payload: payload})
	return nil
}

func (b *brokerStub) send(topic, payload string) {
	b.mu.Lock()
	h := b.handlers[topic]
	b.mu.Unlock()
	h(context.Background(), topic, []byte(payload))
}

func (b *brokerStub) subscribed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

func (b *brokerStub) records() []core.Outbound {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Outbound(nil), b.published...)
}

type fixture struct {
	agent  *Agent
	broker *brokerStub
	plug   *actuator.Fake
	fwd    *forwarder.Fake
	disp   *dispatch.Dispatcher
}

func newFixture(powerOff bool) *fixture {
	logger := log.NewNopLogger()
	broker := &brokerStub{}
	plug := actuator.NewFake()
	fwd := &forwarder.Fake{}

	topics := dispatch.Topics{Telemetry: "chomp_topic", Rental: "rental_topic", Control: "control_topic", Status: "actuator_topic"}
	agg := aggregator.New(aggregator.DefaultConfig())
	sc := safety.NewController(plug, logger)
	rm := rental.NewManager(rental.Config{Actuator: plug, Resetters: []rental.Resetter{agg, sc}, Logger: logger})
	d := dispatch.New(dispatch.Config{Topics: topics, Aggregator: agg, Safety: sc, Rental: rm, Forwarder: fwd, Logger: logger})
	h := hub.New(broker, []string{topics.Telemetry, topics.Rental, topics.Control}, 16, logger)

	a := NewAgent(Components{
		Actuator:          plug,
		Dispatcher:        d,
		Hub:               h,
		PowerOffOnStartup: powerOff,
		Logger:            logger,
	})
	return &fixture{agent: a, broker: broker, plug: plug, fwd: fwd, disp: d}
}

func (f *fixture) run(t *testing.T) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.agent.Run(ctx) }()

	require.Eventually(t, func() bool { return f.broker.subscribed() == 3 }, 2*time.Second, 10*time.Millisecond)
	return cancel, errCh
}

func TestAgentEndToEnd(t *testing.T) {
	f := newFixture(true)
	cancel, errCh := f.run(t)

	f.broker.send("rental_topic", "alice rented BOX-7")
	for i := 0; i < 10; i++ {
		f.broker.send("chomp_topic", `{"temperature":72.0,"id":"s1","flame":false}`)
	}

	require.Eventually(t, func() bool { return len(f.broker.records()) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := f.broker.records()[0]
	assert.Equal(t, "actuator_topic", rec.Topic)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &body))
	assert.Equal(t, 72.0, body["average_temperature"])
	assert.Equal(t, []float64{72.0}, f.fwd.Temperatures())

	// status probe, startup power off, rental power on
	assert.Equal(t, []string{"status", "off", "on"}, f.plug.Calls())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
	assert.True(t, f.broker.stopped)
}

func TestAgentStartupFailuresAreNotFatal(t *testing.T) {
	f := newFixture(true)
	f.plug.StatusErr = errors.New("unreachable")
	f.plug.PowerOffErr = errors.New("unreachable")

	cancel, errCh := f.run(t)
	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"status", "off"}, f.plug.Calls())
}

func TestAgentWithoutStartupPowerOff(t *testing.T) {
	f := newFixture(false)

	cancel, errCh := f.run(t)
	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"status"}, f.plug.Calls())
}

func TestAgentKeepsGoingAfterBadMessages(t *testing.T) {
	f := newFixture(false)
	cancel, errCh := f.run(t)
	defer func() {
		cancel()
		<-errCh
	}()

	f.broker.send("control_topic", `{"power":"on"}`)
	f.broker.send("chomp_topic", `garbage`)
	f.broker.send("rental_topic", "bob rented BOX-1")

	require.Eventually(t, func() bool {
		return f.disp.Snapshot().State == core.StateActive
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(3), f.disp.Snapshot().Processed)
	assert.Equal(t, []string{"status", "on"}, f.plug.Calls())
}

func TestConfigTopics(t *testing.T) {
	mq := options.NewMqttOptions()
	mq.TopicRoot = "site-a"
	cfg := &Config{MqttOptions: mq}

	assert.Equal(t, dispatch.Topics{
		Telemetry: "site-a/chomp_topic",
		Rental:    "site-a/rental_topic",
		Control:   "site-a/control_topic",
		Status:    "site-a/actuator_topic",
	}, cfg.topics())
}
