package log

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// Supported encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the process logger.
type Options struct {
	Name        string   `json:"name,omitempty" mapstructure:"name"`
	Level       string   `json:"level,omitempty" mapstructure:"level"`
	Format      string   `json:"format,omitempty" mapstructure:"format"`
	Color       bool     `json:"color,omitempty" mapstructure:"color"`
	Caller      bool     `json:"caller,omitempty" mapstructure:"caller"`
	OutputPaths []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns console logging at info level to stdout.
func NewOptions() *Options {
	return &Options{
		Level:       zapcore.InfoLevel.String(),
		Format:      FormatConsole,
		Color:       true,
		Caller:      true,
		OutputPaths: []string{"stdout"},
	}
}

func (o *Options) Validate() []error {
	var errs []error
	if _, err := zapcore.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: %w", err))
	}
	if !slices.Contains([]string{FormatConsole, FormatJSON}, o.Format) {
		errs = append(errs, fmt.Errorf("--log.format must be %q or %q, got %q", FormatConsole, FormatJSON, o.Format))
	}
	return errs
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Logger name attached to every entry.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum level: debug, info, warn or error. Reloaded when the config file changes.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Encoding: console or json.")
	fs.BoolVar(&o.Color, "log.color", o.Color, "Colour level names in console output.")
	fs.BoolVar(&o.Caller, "log.caller", o.Caller, "Annotate entries with the calling file and line.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Destinations: stdout, stderr or file paths.")
}
