// Package mqtt wraps paho's autopaho connection manager behind a small
// Client interface with automatic resubscription and in-order delivery.
package mqtt

import "context"

// MessageHandler receives one PUBLISH. Handlers run on the receive path, one
// at a time and in arrival order, so slow work belongs on a queue.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is a broker connection that survives reconnects.
type Client interface {
	// Start begins connecting in the background and returns immediately.
	Start(ctx context.Context) error
	// AwaitConnection blocks until the first connection is up or ctx ends.
	AwaitConnection(ctx context.Context) error
	IsConnected() bool
	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
	// Subscribe routes messages matching filter to handler. The subscription
	// is replayed after every reconnect until Unsubscribe.
	Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, filter string) error
}
