package simulator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
)

// Publisher sends readings from a Generator at a fixed interval.
type Publisher struct {
	client   mqtt.Client
	gen      *Generator
	topic    string
	interval time.Duration
	qos      int
	logger   log.Logger
}

func NewPublisher(client mqtt.Client, gen *Generator, topic string, interval time.Duration, logger log.Logger) *Publisher {
	if logger == nil {
		logger = log.Std()
	}
	return &Publisher{
		client:   client,
		gen:      gen,
		topic:    topic,
		interval: interval,
		qos:      1,
		logger:   logger.WithName("simulator"),
	}
}

// Run publishes count readings, or readings until ctx is done when count is
// zero. It returns the number of readings sent.
func (p *Publisher) Run(ctx context.Context, count int) (int, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	sent := 0
	for count == 0 || sent < count {
		if err := p.publishOne(ctx); err != nil {
			return sent, err
		}
		sent++

		if count != 0 && sent == count {
			break
		}

		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}

	return sent, nil
}

func (p *Publisher) publishOne(ctx context.Context) error {
	reading := p.gen.Next()
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.topic, p.qos, false, payload); err != nil {
		return err
	}
	p.logger.Debug("Sent reading", "topic", p.topic, "payload", string(payload))
	return nil
}
