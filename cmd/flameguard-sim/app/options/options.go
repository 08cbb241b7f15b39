package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/flameguard/internal/flameguard/simulator"
	"github.com/autopeer-io/flameguard/pkg/app"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

// SensorOptions describe the simulated sensor.
type SensorOptions struct {
	DeviceID                string        `json:"device-id" mapstructure:"device-id"`
	Interval                time.Duration `json:"interval" mapstructure:"interval"`
	Count                   int           `json:"count" mapstructure:"count"`
	Temperature             float64       `json:"temperature" mapstructure:"temperature"`
	Jitter                  float64       `json:"jitter" mapstructure:"jitter"`
	FlameRatio              float64       `json:"flame-ratio" mapstructure:"flame-ratio"`
	MissingTemperatureRatio float64       `json:"missing-temperature-ratio" mapstructure:"missing-temperature-ratio"`
	Seed                    uint64        `json:"seed" mapstructure:"seed"`

	// EmbeddedBroker, when set, is the address of an in-process broker to start.
	EmbeddedBroker string `json:"embedded-broker" mapstructure:"embedded-broker"`
}

func NewSensorOptions() *SensorOptions {
	return &SensorOptions{
		DeviceID:    "sim-sensor",
		Interval:    time.Second,
		Temperature: 22,
		Jitter:      1.5,
		Seed:        uint64(time.Now().UnixNano()),
	}
}

func (o *SensorOptions) Validate() []error {
	var errs []error
	if o.Interval <= 0 {
		errs = append(errs, fmt.Errorf("--sensor.interval must be positive"))
	}
	if o.Count < 0 {
		errs = append(errs, fmt.Errorf("--sensor.count must not be negative"))
	}
	if o.FlameRatio < 0 || o.FlameRatio > 1 {
		errs = append(errs, fmt.Errorf("--sensor.flame-ratio must be in [0, 1]"))
	}
	if o.MissingTemperatureRatio < 0 || o.MissingTemperatureRatio > 1 {
		errs = append(errs, fmt.Errorf("--sensor.missing-temperature-ratio must be in [0, 1]"))
	}
	if o.EmbeddedBroker != "" {
		if err := options.ValidateAddress(o.EmbeddedBroker); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (o *SensorOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DeviceID, "sensor.device-id", o.DeviceID, "Device id sent with every reading.")
	fs.DurationVar(&o.Interval, "sensor.interval", o.Interval, "Time between two readings.")
	fs.IntVar(&o.Count, "sensor.count", o.Count, "Number of readings to send; 0 sends until interrupted.")
	fs.Float64Var(&o.Temperature, "sensor.temperature", o.Temperature, "Mean temperature in degrees.")
	fs.Float64Var(&o.Jitter, "sensor.jitter", o.Jitter, "Maximum deviation from the mean temperature.")
	fs.Float64Var(&o.FlameRatio, "sensor.flame-ratio", o.FlameRatio, "Probability of a positive flame reading.")
	fs.Float64Var(&o.MissingTemperatureRatio, "sensor.missing-temperature-ratio", o.MissingTemperatureRatio, "Probability of a reading without temperature.")
	fs.Uint64Var(&o.Seed, "sensor.seed", o.Seed, "Random seed, for reproducible runs.")
	fs.StringVar(&o.EmbeddedBroker, "sensor.embedded-broker", o.EmbeddedBroker, "Start an in-process MQTT broker on this address, e.g. 127.0.0.1:1883.")
}

func (o *SensorOptions) Profile() simulator.Profile {
	return simulator.Profile{
		DeviceID:                o.DeviceID,
		BaseTemperature:         o.Temperature,
		Jitter:                  o.Jitter,
		FlameRatio:              o.FlameRatio,
		MissingTemperatureRatio: o.MissingTemperatureRatio,
	}
}

type SimOptions struct {
	MqttOptions   *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	SensorOptions *SensorOptions       `json:"sensor" mapstructure:"sensor"`
	Log           *log.Options         `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*SimOptions)(nil)

func NewSimOptions() *SimOptions {
	o := &SimOptions{
		MqttOptions:   options.NewMqttOptions(),
		SensorOptions: NewSensorOptions(),
		Log:           log.NewOptions(),
	}
	// The simulator does not announce itself.
	o.MqttOptions.AvailabilityTopic = ""
	return o
}

func (o *SimOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.SensorOptions.AddFlags(fss.FlagSet("sensor"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *SimOptions) Complete() error {
	return nil
}

func (o *SimOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.SensorOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}
