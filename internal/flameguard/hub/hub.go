// Package hub connects the agent to the MQTT broker: it subscribes to the
// inbound streams, queues received messages in arrival order and publishes
// status records.
package hub

import (
	"context"
	"time"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
)

const (
	subscribeQoS = 1
	publishQoS   = 0
)

// Message is a received MQTT message waiting to be dispatched.
type Message struct {
	Topic   string
	Payload []byte
}

type Hub struct {
	mc      mqtt.Client
	inbound []string
	inbox   chan Message
	logger  log.Logger
}

var _ core.Publisher = (*Hub)(nil)

// New creates a Hub subscribing to the given fully qualified topics.
func New(client mqtt.Client, inbound []string, inboxSize int, logger log.Logger) *Hub {
	if logger == nil {
		logger = log.Std()
	}
	if inboxSize <= 0 {
		inboxSize = 1
	}
	return &Hub{
		mc:      client,
		inbound: inbound,
		inbox:   make(chan Message, inboxSize),
		logger:  logger.WithName("hub"),
	}
}

// Inbox delivers received messages in the order the broker sent them.
func (h *Hub) Inbox() <-chan Message {
	return h.inbox
}

// Publish sends a status record, fire-and-forget.
func (h *Hub) Publish(ctx context.Context, msg core.Outbound) error {
	return h.mc.Publish(ctx, msg.Topic, publishQoS, false, msg.Payload)
}

func (h *Hub) IsConnected() bool {
	return h.mc.IsConnected()
}

// Start connects, waits for the first connection and subscribes to every
// inbound topic.
func (h *Hub) Start(ctx context.Context) error {
	if err := h.mc.Start(ctx); err != nil {
		return err
	}

	if err := h.mc.AwaitConnection(ctx); err != nil {
		return err
	}

	for _, topic := range h.inbound {
		if err := h.mc.Subscribe(ctx, topic, subscribeQoS, h.enqueue); err != nil {
			return err
		}
		h.logger.Info("Subscribed", "topic", topic)
	}

	return nil
}

// enqueue runs on the client's receive path. When the inbox is full it
// blocks, which holds back further deliveries instead of dropping any.
func (h *Hub) enqueue(ctx context.Context, topic string, payload []byte) {
	msg := Message{Topic: topic, Payload: payload}

	select {
	case h.inbox <- msg:
		return
	default:
	}

	h.logger.Warn("Inbox full, waiting for the dispatcher", "topic", topic, "capacity", cap(h.inbox))
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		h.logger.Warn("Message discarded on shutdown", "topic", topic)
	}
}

func (h *Hub) Stop() {
	h.logger.Info("Disconnecting MQTT client...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.mc.Disconnect(ctx)
}
