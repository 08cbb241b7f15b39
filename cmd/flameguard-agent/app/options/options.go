package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/flameguard/internal/flameguard"
	"github.com/autopeer-io/flameguard/pkg/app"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

type AgentOptions struct {
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	PlugOptions      *options.PlugOptions      `json:"plug" mapstructure:"plug"`
	ForwarderOptions *options.ForwarderOptions `json:"forwarder" mapstructure:"forwarder"`
	MonitorOptions   *options.MonitorOptions   `json:"monitor" mapstructure:"monitor"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		MqttOptions:      options.NewMqttOptions(),
		HttpOptions:      options.NewHttpOptions(),
		PlugOptions:      options.NewPlugOptions(),
		ForwarderOptions: options.NewForwarderOptions(),
		MonitorOptions:   options.NewMonitorOptions(),
		Log:              log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.PlugOptions.AddFlags(fss.FlagSet("plug"))
	o.ForwarderOptions.AddFlags(fss.FlagSet("forwarder"))
	o.MonitorOptions.AddFlags(fss.FlagSet("monitor"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "flameguard"
	}
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.PlugOptions.Validate()...)
	errs = append(errs, o.ForwarderOptions.Validate()...)
	errs = append(errs, o.MonitorOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*flameguard.Config, error) {
	return &flameguard.Config{
		MqttOptions:      o.MqttOptions,
		HttpOptions:      o.HttpOptions,
		PlugOptions:      o.PlugOptions,
		ForwarderOptions: o.ForwarderOptions,
		MonitorOptions:   o.MonitorOptions,
	}, nil
}
