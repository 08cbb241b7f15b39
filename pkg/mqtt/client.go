package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/flameguard/pkg/log"
)

// ErrNotStarted is returned by operations that need a connection manager
// before Start has been called.
var ErrNotStarted = errors.New("mqtt client not started")

type route struct {
	filter  string
	match   string // filter with any $share/<group>/ prefix removed
	qos     byte
	handler MessageHandler
}

type pahoClient struct {
	cfg *ClientConfig
	cm  *autopaho.ConnectionManager

	// runCtx is the context given to Start; handlers receive it.
	runCtx    context.Context
	connected atomic.Bool

	mu     sync.RWMutex
	routes map[string]route
}

// NewClient validates cfg, fills in defaults and returns an unstarted Client.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, errors.New("mqtt: nil client config")
	}
	setDefaultConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		runCtx: context.Background(),
		routes: map[string]route{},
	}, nil
}

func (c *pahoClient) Start(ctx context.Context) error {
	server, err := url.Parse(c.cfg.BrokerURL)
	if err != nil {
		return err
	}

	acfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{server},
		KeepAlive:                     c.cfg.KeepAlive,
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectDelay),
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		WillMessage:                   c.will(),
		OnConnectionUp:                c.connectionUp,
		OnConnectError:                c.connectError,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnPublishReceived:  []func(paho.PublishReceived) (bool, error){c.deliver},
			OnClientError:      c.clientError,
			OnServerDisconnect: c.serverDisconnect,
		},
	}
	if c.cfg.InsecureSkipVerify {
		acfg.TlsCfg = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for lab brokers
	}

	log.Info("Connecting to MQTT broker", "broker", c.cfg.BrokerURL, "client_id", c.cfg.ClientID)

	c.runCtx = ctx
	cm, err := autopaho.NewConnection(ctx, acfg)
	if err != nil {
		return fmt.Errorf("mqtt: start connection: %w", err)
	}
	c.cm = cm
	return nil
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		log.Debug("MQTT disconnect returned an error", "err", err)
	}
	c.connected.Store(false)
	log.Info("Disconnected from MQTT broker")
}

func (c *pahoClient) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	_, err := c.cm.Publish(ctx, &paho.Publish{Topic: topic, QoS: byte(qos), Retain: retain, Payload: payload})
	return err
}

// Subscribe records the route before sending SUBSCRIBE so a reconnect in
// between still restores it.
func (c *pahoClient) Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	r := route{filter: topic, match: topicFilter(topic), qos: byte(qos), handler: handler}
	c.mu.Lock()
	c.routes[topic] = r
	c.mu.Unlock()

	if err := c.sendSubscribe(ctx, c.cm, r); err != nil {
		return fmt.Errorf("mqtt: subscribe %q: %w", topic, err)
	}
	log.Info("Subscribed", "topic", topic, "qos", qos)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, topic string) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	delete(c.routes, topic)
	c.mu.Unlock()

	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{topic}})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool { return c.connected.Load() }

func (c *pahoClient) sendSubscribe(ctx context.Context, cm *autopaho.ConnectionManager, r route) error {
	_, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: r.filter, QoS: r.qos}},
	})
	return err
}

func (c *pahoClient) snapshot() []route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]route, 0, len(c.routes))
	for _, r := range c.routes {
		out = append(out, r)
	}
	return out
}

// connectionUp restores subscriptions and announces availability.
func (c *pahoClient) connectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)
	log.Info("MQTT connection up")

	for _, r := range c.snapshot() {
		if err := c.sendSubscribe(c.runCtx, cm, r); err != nil {
			log.Error(err, "Resubscribe failed", "topic", r.filter)
		}
	}

	if c.cfg.WillTopic == "" || c.cfg.BirthPayload == nil {
		return
	}
	go func() {
		birth := &paho.Publish{Topic: c.cfg.WillTopic, QoS: c.cfg.WillQoS, Retain: true, Payload: c.cfg.BirthPayload}
		if _, err := cm.Publish(c.runCtx, birth); err != nil {
			log.Error(err, "Birth message not published", "topic", c.cfg.WillTopic)
		}
	}()
}

func (c *pahoClient) connectError(err error) {
	c.connected.Store(false)
	log.Error(err, "MQTT connect attempt failed", "retry_in", c.cfg.ReconnectDelay)
}

func (c *pahoClient) clientError(err error) {
	c.connected.Store(false)
	log.Error(err, "MQTT client error")
}

func (c *pahoClient) serverDisconnect(d *paho.Disconnect) {
	c.connected.Store(false)
	var reason string
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	log.Warn("MQTT broker closed the session", "reason_code", d.ReasonCode, "reason", reason)
}

// deliver hands a PUBLISH to every matching route. It runs on paho's receive
// goroutine, so handlers see messages in arrival order.
func (c *pahoClient) deliver(p paho.PublishReceived) (bool, error) {
	topic, payload := p.Packet.Topic, p.Packet.Payload

	handled := false
	for _, r := range c.snapshot() {
		if topicsMatch(r.match, topic) {
			r.handler(c.runCtx, topic, payload)
			handled = true
		}
	}
	if !handled {
		log.Debug("No route for message", "topic", topic)
	}
	return true, nil
}

func (c *pahoClient) will() *paho.WillMessage {
	if c.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.cfg.WillTopic,
		QoS:     c.cfg.WillQoS,
		Retain:  c.cfg.WillRetain,
		Payload: c.cfg.WillPayload,
	}
}

// topicsMatch reports whether topic matches filter, honouring the + and #
// wildcards.
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	fs, ts := strings.Split(filter, "/"), strings.Split(topic, "/")
	for i, seg := range fs {
		switch {
		case seg == "#":
			return true
		case i >= len(ts):
			return false
		case seg != "+" && seg != ts[i]:
			return false
		}
	}
	return len(fs) == len(ts)
}

// topicFilter strips a shared-subscription prefix ($share/<group>/).
func topicFilter(filter string) string {
	rest, ok := strings.CutPrefix(filter, "$share/")
	if !ok {
		return filter
	}
	if _, f, ok := strings.Cut(rest, "/"); ok {
		return f
	}
	return filter
}
