package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
)

type published struct {
	topic   string
	qos     int
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	started      bool
	disconnected bool
	connected    bool
	startErr     error
	subscribeErr error
	handlers     map[string]mqtt.MessageHandler
	published    []published
}

var _ mqtt.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]mqtt.MessageHandler{}}
}

func (f *fakeClient) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started, f.connected = true, true
	return nil
}

func (f *fakeClient) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected, f.connected = true, false
}

func (f *fakeClient) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, qos, retain, payload})
	return nil
}

func (f *fakeClient) Subscribe(_ context.Context, topic string, _ int, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeClient) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeClient) AwaitConnection(context.Context) error { return nil }

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) deliver(ctx context.Context, topic, payload string) {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	h(ctx, topic, []byte(payload))
}

func TestStartSubscribesAndQueuesInOrder(t *testing.T) {
	fc := newFakeClient()
	h := New(fc, []string{"chomp_topic", "rental_topic", "control_topic"}, 8, log.NewNopLogger())

	require.NoError(t, h.Start(context.Background()))
	assert.True(t, h.IsConnected())
	assert.Len(t, fc.handlers, 3)

	ctx := context.Background()
	fc.deliver(ctx, "rental_topic", "alice rented BOX-7")
	fc.deliver(ctx, "chomp_topic", `{"temperature":20}`)
	fc.deliver(ctx, "control_topic", `{"power":"off"}`)

	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, (<-h.Inbox()).Topic)
	}
	assert.Equal(t, []string{"rental_topic", "chomp_topic", "control_topic"}, got)

	h.Stop()
	assert.True(t, fc.disconnected)
	assert.False(t, h.IsConnected())
}

func TestStartErrors(t *testing.T) {
	fc := newFakeClient()
	fc.startErr = errors.New("bad url")
	assert.Error(t, New(fc, []string{"a"}, 1, nil).Start(context.Background()))

	fc = newFakeClient()
	fc.subscribeErr = errors.New("not authorized")
	assert.Error(t, New(fc, []string{"a"}, 1, nil).Start(context.Background()))
}

func TestFullInboxBlocksUntilDrained(t *testing.T) {
	fc := newFakeClient()
	h := New(fc, []string{"t"}, 1, log.NewNopLogger())
	require.NoError(t, h.Start(context.Background()))

	fc.deliver(context.Background(), "t", "1")

	done := make(chan struct{})
	go func() {
		fc.deliver(context.Background(), "t", "2")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second delivery should wait for room in the inbox")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, "1", string((<-h.Inbox()).Payload))
	<-done
	assert.Equal(t, "2", string((<-h.Inbox()).Payload))
}

func TestFullInboxReleasedOnShutdown(t *testing.T) {
	fc := newFakeClient()
	h := New(fc, []string{"t"}, 1, log.NewNopLogger())
	require.NoError(t, h.Start(context.Background()))

	fc.deliver(context.Background(), "t", "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc.deliver(ctx, "t", "2")

	assert.Len(t, h.Inbox(), 1)
}

func TestPublish(t *testing.T) {
	fc := newFakeClient()
	h := New(fc, nil, 1, log.NewNopLogger())

	require.NoError(t, h.Publish(context.Background(), core.Outbound{Topic: "actuator_topic", Payload: []byte(`{}`)}))
	require.Len(t, fc.published, 1)
	assert.Equal(t, published{topic: "actuator_topic", qos: 0, retain: false, payload: []byte(`{}`)}, fc.published[0])
}
