package flameguard

import (
	"fmt"

	"github.com/autopeer-io/flameguard/internal/flameguard/actuator"
	"github.com/autopeer-io/flameguard/internal/flameguard/aggregator"
	"github.com/autopeer-io/flameguard/internal/flameguard/dispatch"
	"github.com/autopeer-io/flameguard/internal/flameguard/forwarder"
	"github.com/autopeer-io/flameguard/internal/flameguard/hub"
	"github.com/autopeer-io/flameguard/internal/flameguard/rental"
	"github.com/autopeer-io/flameguard/internal/flameguard/safety"
	"github.com/autopeer-io/flameguard/internal/flameguard/server"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
	"github.com/autopeer-io/flameguard/pkg/options"
)

type Config struct {
	MqttOptions      *options.MqttOptions
	HttpOptions      *options.HttpOptions
	PlugOptions      *options.PlugOptions
	ForwarderOptions *options.ForwarderOptions
	MonitorOptions   *options.MonitorOptions
}

// NewAgent builds every component from the configuration. Nothing is
// connected or started until Run.
func (cfg *Config) NewAgent() (*Agent, error) {
	logger := log.Std()

	client, err := mqtt.NewClient(cfg.MqttOptions.ToClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	topics := cfg.topics()
	h := hub.New(client, []string{topics.Telemetry, topics.Rental, topics.Control}, cfg.MqttOptions.InboxSize, logger)

	plug := actuator.NewGuard(actuator.NewHelper(cfg.PlugOptions), cfg.PlugOptions.Timeout, logger)

	agg := aggregator.New(aggregator.Config{
		TempBufferSize:        cfg.MonitorOptions.TempBufferSize,
		FlameWindow:           cfg.MonitorOptions.FlameWindow,
		FlameThreshold:        cfg.MonitorOptions.FlameThreshold,
		FlamePublishFrequency: cfg.MonitorOptions.FlamePublishFrequency,
	})
	sc := safety.NewController(plug, logger)
	rm := rental.NewManager(rental.Config{
		Actuator:  plug,
		Resetters: []rental.Resetter{agg, sc},
		Policy:    cfg.MonitorOptions.RentalPolicy,
		Logger:    logger,
	})

	d := dispatch.New(dispatch.Config{
		Topics:     topics,
		Aggregator: agg,
		Safety:     sc,
		Rental:     rm,
		Forwarder:  forwarder.NewHTTP(cfg.ForwarderOptions, logger),
		Logger:     logger,
	})

	var srv *server.Server
	if cfg.HttpOptions.Enabled() {
		srv = server.NewServer(cfg.HttpOptions, d, h.IsConnected, logger)
	}

	return NewAgent(Components{
		Actuator:          plug,
		Dispatcher:        d,
		Hub:               h,
		Server:            srv,
		PowerOffOnStartup: cfg.MonitorOptions.PowerOffOnStartup,
		Logger:            logger,
	}), nil
}

func (cfg *Config) topics() dispatch.Topics {
	b := cfg.MqttOptions.TopicBuilder()
	return dispatch.Topics{
		Telemetry: b.Build(cfg.MqttOptions.TelemetryTopic),
		Rental:    b.Build(cfg.MqttOptions.RentalTopic),
		Control:   b.Build(cfg.MqttOptions.ControlTopic),
		Status:    b.Build(cfg.MqttOptions.StatusTopic),
	}
}
