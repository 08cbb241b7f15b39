package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ForwarderOptions)(nil)

// ForwarderOptions configures the HTTP sink receiving averages and alerts.
type ForwarderOptions struct {
	// Endpoint is the base URL of the backend, e.g. http://10.0.0.5:8080.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// BoxCode identifies this box to the backend.
	BoxCode string `json:"box-code" mapstructure:"box-code"`

	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewForwarderOptions creates a ForwarderOptions object with default parameters.
func NewForwarderOptions() *ForwarderOptions {
	return &ForwarderOptions{
		Endpoint: "http://localhost:8080",
		BoxCode:  "AAs12",
		Timeout:  10 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *ForwarderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	u, err := url.Parse(o.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("--forwarder.endpoint %q must be an http(s) URL", o.Endpoint))
	}
	if o.BoxCode == "" {
		errs = append(errs, fmt.Errorf("--forwarder.box-code is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--forwarder.timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for ForwarderOptions to the specified FlagSet.
func (o *ForwarderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "forwarder.endpoint", o.Endpoint, "Base URL of the backend receiving temperatures and alerts.")
	fs.StringVar(&o.BoxCode, "forwarder.box-code", o.BoxCode, "Code identifying this box to the backend.")
	fs.DurationVar(&o.Timeout, "forwarder.timeout", o.Timeout, "Timeout of a single backend request.")
}
