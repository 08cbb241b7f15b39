// Package app builds cobra commands whose options come from flags, an
// optional config file and environment variables. Flags given on the command
// line win over the environment, which wins over the config file.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
)

// RunFunc is the body of a command, called after options were loaded and validated.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string

	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	subCommands []*cobra.Command
	onChange    func(fsnotify.Event)

	v          *viper.Viper
	configFile string
	cmd        *cobra.Command
}

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithEnvPrefix overrides the environment variable prefix, by default the
// upper-cased first word of the command name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) { a.envPrefix = prefix }
}

// WithSubCommands adds commands below the root command.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subCommands = append(a.subCommands, cmds...) }
}

// WithConfigWatcher calls fn whenever the config file changes. The viper
// instance passed to Viper() already holds the new values.
func WithConfigWatcher(fn func(fsnotify.Event)) Option {
	return func(a *App) { a.onChange = fn }
}

func NewApp(name, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		v:         viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.envPrefix == "" {
		a.envPrefix = strings.ToUpper(strings.SplitN(name, "-", 2)[0])
	}

	a.buildCommand()
	return a
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration source of the command.
func (a *App) Viper() *viper.Viper {
	return a.v
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Read configuration from the specified file (yaml, json or toml).")

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
		fs := cmd.Flags()
		for _, f := range namedFlagSets.FlagSets {
			fs.AddFlagSet(f)
		}
	}

	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, 80)

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}
	cmd.AddCommand(a.subCommands...)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if a.options != nil {
		if err := a.loadOptions(cmd); err != nil {
			return err
		}
	}
	return a.runFunc()
}

// loadOptions merges config file and environment into the options, then
// completes and validates them.
func (a *App) loadOptions(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	a.v.SetEnvPrefix(a.envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", a.configFile, err)
		}
	}

	if err := a.v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if a.configFile != "" && a.onChange != nil {
		a.v.OnConfigChange(a.onChange)
		a.v.WatchConfig()
	}
	return nil
}
