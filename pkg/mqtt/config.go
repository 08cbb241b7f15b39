package mqtt

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Defaults applied by NewClient to zero-valued fields.
const (
	DefaultKeepAlive      uint16 = 60
	DefaultConnectTimeout        = 5 * time.Second
	DefaultReconnectDelay        = 3 * time.Second
)

// ClientConfig describes one broker connection.
type ClientConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	KeepAlive      uint16 // seconds
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration

	CleanStart    bool
	SessionExpiry uint32 // seconds, MQTT v5

	InsecureSkipVerify bool

	// Last will, published by the broker when the connection drops.
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool

	// BirthPayload is published retained to WillTopic on every connection.
	// Ignored without a WillTopic.
	BirthPayload []byte
}

func setDefaultConfig(cfg *ClientConfig) {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
}

func (c *ClientConfig) Validate() error {
	var errs []error

	if c.BrokerURL == "" {
		errs = append(errs, errors.New("broker url is empty"))
	} else if u, err := url.Parse(c.BrokerURL); err != nil {
		errs = append(errs, fmt.Errorf("broker url: %w", err))
	} else if u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("broker url %q needs a scheme and host", c.BrokerURL))
	}

	if c.ClientID == "" {
		errs = append(errs, errors.New("client id is empty"))
	}
	if c.WillQoS > 2 {
		errs = append(errs, fmt.Errorf("will qos %d out of range", c.WillQoS))
	}
	return errors.Join(errs...)
}
