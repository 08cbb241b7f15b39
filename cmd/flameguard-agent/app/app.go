package app

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/flameguard/cmd/flameguard-agent/app/options"
	"github.com/autopeer-io/flameguard/pkg/app"
	"github.com/autopeer-io/flameguard/pkg/log"
)

const (
	commandName = "flameguard-agent"
	commandDesc = `The Flameguard Agent watches the flame and temperature sensors of a rented
box over MQTT. It averages temperatures, raises flame alerts, cuts the smart plug
when a fire is detected and forwards readings to the backend.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()

	var application *app.App
	application = app.NewApp(
		commandName,
		"Launch a Flameguard hazard monitoring agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithEnvPrefix("FLAMEGUARD"),
		app.WithSubCommands(newStatusCommand()),
		app.WithRunFunc(run(opts)),
		app.WithConfigWatcher(func(e fsnotify.Event) {
			reloadLogLevel(application, e)
		}),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}

// reloadLogLevel applies log.level from a changed config file. Other settings
// need a restart.
func reloadLogLevel(a *app.App, e fsnotify.Event) {
	level := a.Viper().GetString("log.level")
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring log level from config file", "file", e.Name)
		return
	}
	log.Info("Log level changed", "level", level, "file", e.Name)
}
