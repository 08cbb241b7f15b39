package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PlugOptions)(nil)

// PlugOptions configures the smart plug that switches the box power.
type PlugOptions struct {
	// Command is the helper invocation; the action, address, username and
	// password are appended as arguments.
	Command []string `json:"command" mapstructure:"command"`

	Address  string `json:"address" mapstructure:"address"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	// Timeout is the ceiling applied to every single plug command.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewPlugOptions creates a PlugOptions object with default parameters.
func NewPlugOptions() *PlugOptions {
	return &PlugOptions{
		Command: []string{"python3", "smart_plug_controller.py"},
		Timeout: 20 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *PlugOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if len(o.Command) == 0 || o.Command[0] == "" {
		errs = append(errs, errors.New("--plug.command must name the plug helper"))
	}
	if o.Address == "" {
		errs = append(errs, errors.New("--plug.address is required"))
	}
	if o.Timeout <= 0 || o.Timeout > 2*time.Minute {
		errs = append(errs, fmt.Errorf("--plug.timeout must be in (0, 2m], got %s", o.Timeout))
	}

	return errs
}

// AddFlags adds flags for PlugOptions to the specified FlagSet.
func (o *PlugOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.Command, "plug.command", o.Command, "Helper command used to switch the smart plug.")
	fs.StringVar(&o.Address, "plug.address", o.Address, "Network address of the smart plug.")
	fs.StringVar(&o.Username, "plug.username", o.Username, "Username of the smart plug account.")
	fs.StringVar(&o.Password, "plug.password", o.Password, "Password of the smart plug account.")
	fs.DurationVar(&o.Timeout, "plug.timeout", o.Timeout, "Maximum duration of a single plug command.")
}
