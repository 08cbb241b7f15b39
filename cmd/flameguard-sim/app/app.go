package app

import (
	"context"
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/flameguard/cmd/flameguard-sim/app/options"
	"github.com/autopeer-io/flameguard/internal/flameguard/simulator"
	"github.com/autopeer-io/flameguard/pkg/app"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/mqtt"
)

const (
	commandName = "flameguard-sim"
	commandDesc = `The Flameguard sensor simulator publishes synthetic flame and temperature
readings to the telemetry topic, optionally through an embedded broker.`
)

func NewApp() *app.App {
	opts := options.NewSimOptions()
	return app.NewApp(
		commandName,
		"Publish simulated sensor readings",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithEnvPrefix("FLAMEGUARD_SIM"),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.SimOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		if addr := opts.SensorOptions.EmbeddedBroker; addr != "" {
			broker, err := simulator.StartBroker(addr)
			if err != nil {
				return fmt.Errorf("failed to start embedded broker: %w", err)
			}
			defer broker.Close()
			log.Info("Embedded MQTT broker listening", "addr", addr)
		}

		client, err := mqtt.NewClient(opts.MqttOptions.ToClientConfig())
		if err != nil {
			return fmt.Errorf("failed to init mqtt client: %w", err)
		}
		if err := client.Start(ctx); err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := client.AwaitConnection(ctx); err != nil {
			return err
		}

		topic := opts.MqttOptions.TopicBuilder().Build(opts.MqttOptions.TelemetryTopic)
		gen := simulator.NewGenerator(opts.SensorOptions.Profile(), opts.SensorOptions.Seed)
		pub := simulator.NewPublisher(client, gen, topic, opts.SensorOptions.Interval, log.Std())

		sent, err := pub.Run(ctx, opts.SensorOptions.Count)
		log.Info("Simulator stopped", "sent", sent, "topic", topic)
		return err
	}
}
