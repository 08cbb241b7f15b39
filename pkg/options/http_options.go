package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configures the probe, metrics and status listener.
type HttpOptions struct {
	Network string        `json:"network" mapstructure:"network"`
	Addr    string        `json:"addr" mapstructure:"addr"` // empty disables the listener
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewHttpOptions() *HttpOptions {
	return &HttpOptions{Network: "tcp", Addr: "0.0.0.0:9100", Timeout: 30 * time.Second}
}

// Enabled reports whether the listener should be started.
func (o *HttpOptions) Enabled() bool { return o != nil && o.Addr != "" }

func (o *HttpOptions) Validate() []error {
	if !o.Enabled() {
		return nil
	}
	if err := ValidateAddress(o.Addr); err != nil {
		return []error{err}
	}
	return nil
}

func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, _ ...string) {
	fs.StringVar(&o.Network, "http.network", o.Network, "Listener network, tcp, tcp4 or tcp6.")
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Listen address for /healthz, /readyz, /metrics and /status. Empty disables it.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Read and write timeout per request.")
}
