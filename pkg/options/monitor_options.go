package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MonitorOptions)(nil)

// Rental policies applied when a rental starts while another one is active.
const (
	RentalPolicyReplace = "replace"
	RentalPolicyReject  = "reject"
)

// MonitorOptions tunes hazard detection and the rental lifecycle.
type MonitorOptions struct {
	// TempBufferSize is the number of readings averaged into one temperature report.
	TempBufferSize int `json:"temp-buffer-size" mapstructure:"temp-buffer-size"`

	// FlameWindow is the number of recent flame readings considered for an alert.
	FlameWindow int `json:"flame-window" mapstructure:"flame-window"`

	// FlameThreshold is exceeded (strictly) by the count of positive readings to raise an alert.
	FlameThreshold int `json:"flame-threshold" mapstructure:"flame-threshold"`

	// FlamePublishFrequency is the number of positive readings between flame status reports.
	FlamePublishFrequency int `json:"flame-publish-frequency" mapstructure:"flame-publish-frequency"`

	// RentalPolicy decides what a second rental start does: "replace" or "reject".
	RentalPolicy string `json:"rental-policy" mapstructure:"rental-policy"`

	// PowerOffOnStartup switches the plug off when the agent starts.
	PowerOffOnStartup bool `json:"power-off-on-startup" mapstructure:"power-off-on-startup"`
}

// NewMonitorOptions creates a MonitorOptions object with default parameters.
func NewMonitorOptions() *MonitorOptions {
	return &MonitorOptions{
		TempBufferSize:        10,
		FlameWindow:           8,
		FlameThreshold:        4,
		FlamePublishFrequency: 3,
		RentalPolicy:          RentalPolicyReplace,
		PowerOffOnStartup:     true,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MonitorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.TempBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("--monitor.temp-buffer-size must be positive"))
	}
	if o.FlameWindow <= 0 {
		errs = append(errs, fmt.Errorf("--monitor.flame-window must be positive"))
	}
	if o.FlameThreshold < 0 || o.FlameThreshold >= o.FlameWindow {
		errs = append(errs, fmt.Errorf("--monitor.flame-threshold must be in [0, flame-window)"))
	}
	if o.FlamePublishFrequency <= 0 {
		errs = append(errs, fmt.Errorf("--monitor.flame-publish-frequency must be positive"))
	}
	if o.RentalPolicy != RentalPolicyReplace && o.RentalPolicy != RentalPolicyReject {
		errs = append(errs, fmt.Errorf("--monitor.rental-policy must be %q or %q", RentalPolicyReplace, RentalPolicyReject))
	}

	return errs
}

// AddFlags adds flags for MonitorOptions to the specified FlagSet.
func (o *MonitorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TempBufferSize, "monitor.temp-buffer-size", o.TempBufferSize, "Readings averaged into one temperature report.")
	fs.IntVar(&o.FlameWindow, "monitor.flame-window", o.FlameWindow, "Number of recent flame readings considered for an alert.")
	fs.IntVar(&o.FlameThreshold, "monitor.flame-threshold", o.FlameThreshold, "Positive readings in the window above which an alert is raised.")
	fs.IntVar(&o.FlamePublishFrequency, "monitor.flame-publish-frequency", o.FlamePublishFrequency, "Positive readings between two flame status reports.")
	fs.StringVar(&o.RentalPolicy, "monitor.rental-policy", o.RentalPolicy, "Behaviour when a rental starts while one is active: 'replace' or 'reject'.")
	fs.BoolVar(&o.PowerOffOnStartup, "monitor.power-off-on-startup", o.PowerOffOnStartup, "Switch the plug off when the agent starts.")
}
