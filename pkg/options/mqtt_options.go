package options

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/flameguard/pkg/mqtt"
	"github.com/autopeer-io/flameguard/pkg/mqtt/topic"
)

var _ IOptions = (*MqttOptions)(nil)

// Payloads published retained to the availability topic.
const (
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// MqttOptions contains configuration for MQTT client and topics.
type MqttOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// Client behavior
	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	SessionExpiry  uint32        `json:"session-expiry" mapstructure:"session-expiry"`
	CleanStart     bool          `json:"clean-start" mapstructure:"clean-start"`

	// InsecureSkipVerify controls whether a client verifies the server's certificate chain and host name.
	// This should be used only for testing.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// TopicRoot is prepended to every topic below: {TopicRoot}/{topic}.
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`

	TelemetryTopic    string `json:"telemetry-topic" mapstructure:"telemetry-topic"`
	RentalTopic       string `json:"rental-topic" mapstructure:"rental-topic"`
	ControlTopic      string `json:"control-topic" mapstructure:"control-topic"`
	StatusTopic       string `json:"status-topic" mapstructure:"status-topic"`
	AvailabilityTopic string `json:"availability-topic" mapstructure:"availability-topic"`

	// InboxSize bounds the number of received messages waiting to be processed.
	InboxSize int `json:"inbox-size" mapstructure:"inbox-size"`
}

// NewMqttOptions creates a new MqttOptions with default values.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		Broker:            "tcp://localhost:1883",
		KeepAlive:         60 * time.Second,
		ConnectTimeout:    5 * time.Second,
		SessionExpiry:     0,
		CleanStart:        true,
		TelemetryTopic:    topic.DefaultTelemetry,
		RentalTopic:       topic.DefaultRental,
		ControlTopic:      topic.DefaultControl,
		StatusTopic:       topic.DefaultStatus,
		AvailabilityTopic: topic.DefaultAvailability,
		InboxSize:         256,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MqttOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if u, err := url.Parse(o.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("--mqtt.broker %q must be a URL such as tcp://host:1883", o.Broker))
	}

	if o.KeepAlive < time.Second || o.KeepAlive > 65535*time.Second {
		errs = append(errs, fmt.Errorf("--mqtt.keep-alive must be between 1s and 65535s"))
	}

	if o.TelemetryTopic == "" || o.RentalTopic == "" || o.ControlTopic == "" || o.StatusTopic == "" {
		errs = append(errs, errors.New("telemetry, rental, control and status topics must not be empty"))
	}

	seen := map[string]bool{}
	for _, t := range []string{o.TelemetryTopic, o.RentalTopic, o.ControlTopic} {
		if seen[t] {
			errs = append(errs, fmt.Errorf("topic %q is used for more than one inbound stream", t))
		}
		seen[t] = true
	}

	if o.InboxSize <= 0 {
		errs = append(errs, fmt.Errorf("--mqtt.inbox-size must be positive"))
	}

	return errs
}

// AddFlags adds flags for MqttOptions to the specified FlagSet.
func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Broker, "mqtt.broker", o.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.Username, "mqtt.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, "mqtt.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mqtt.client-id", o.ClientID, "Explicit Client ID (optional, generated when empty).")

	fs.DurationVar(&o.KeepAlive, "mqtt.keep-alive", o.KeepAlive, "MQTT Keep Alive interval.")
	fs.DurationVar(&o.ConnectTimeout, "mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing MQTT connection.")
	fs.Uint32Var(&o.SessionExpiry, "mqtt.session-expiry", o.SessionExpiry, "MQTT Session Expiry Interval in seconds.")
	fs.BoolVar(&o.CleanStart, "mqtt.clean-start", o.CleanStart, "Start a clean MQTT session on the first connection.")
	fs.BoolVar(&o.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	// Topics
	fs.StringVar(&o.TopicRoot, "mqtt.topic-root", o.TopicRoot, "Optional prefix applied to all topics.")
	fs.StringVar(&o.TelemetryTopic, "mqtt.telemetry-topic", o.TelemetryTopic, "Topic carrying sensor telemetry.")
	fs.StringVar(&o.RentalTopic, "mqtt.rental-topic", o.RentalTopic, "Topic carrying rental notifications.")
	fs.StringVar(&o.ControlTopic, "mqtt.control-topic", o.ControlTopic, "Topic carrying operator commands.")
	fs.StringVar(&o.StatusTopic, "mqtt.status-topic", o.StatusTopic, "Topic the agent publishes status records to.")
	fs.StringVar(&o.AvailabilityTopic, "mqtt.availability-topic", o.AvailabilityTopic, "Retained online/offline topic; empty disables it.")

	fs.IntVar(&o.InboxSize, "mqtt.inbox-size", o.InboxSize, "Maximum number of received messages waiting to be processed.")
}

// ToClientConfig converts the options into a client configuration. A client
// ID is generated when none was configured.
func (o *MqttOptions) ToClientConfig() *mqtt.ClientConfig {
	clientID := o.ClientID
	if clientID == "" {
		clientID = "flameguard-" + uuid.NewString()[:8]
	}

	cfg := &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           clientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		SessionExpiry:      o.SessionExpiry,
		ConnectTimeout:     o.ConnectTimeout,
		CleanStart:         o.CleanStart,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}

	if o.AvailabilityTopic != "" {
		cfg.WillTopic = o.TopicBuilder().Build(o.AvailabilityTopic)
		cfg.WillPayload = []byte(AvailabilityOffline)
		cfg.WillQoS = 1
		cfg.WillRetain = true
		cfg.BirthPayload = []byte(AvailabilityOnline)
	}

	return cfg
}

// TopicBuilder returns a builder rooted at TopicRoot.
func (o *MqttOptions) TopicBuilder() *topic.Builder {
	return topic.NewBuilder(o.TopicRoot)
}
