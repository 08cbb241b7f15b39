package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options of every command built
// with App.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section, as printed in --help.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate checks the options after flags and config file were applied.
	Validate() error
}
