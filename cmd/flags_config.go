package cmd

import (
	"strings"

	"github.com/nanovms/bootimage/config"
	"github.com/nanovms/bootimage/types"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

// ConfigCommandFlags handles config file path flag and overlays the file on the configuration
type ConfigCommandFlags struct {
	Config string

	fs afero.Fs
}

// MergeToConfig reads a json or yaml configuration file
func (flags *ConfigCommandFlags) MergeToConfig(c *types.Config) error {
	if flags.Config == "" {
		return nil
	}

	fs := flags.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return config.ReadFile(fs, flags.Config, c)
}

// NewConfigCommandFlags returns an instance of ConfigCommandFlags
func NewConfigCommandFlags(cmdFlags *pflag.FlagSet) (flags *ConfigCommandFlags) {
	flags = &ConfigCommandFlags{}

	flags.Config, _ = cmdFlags.GetString("config")
	flags.Config = strings.TrimSpace(flags.Config)

	return
}

// PersistConfigCommandFlags append a command the config file flag
func PersistConfigCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.StringP("config", "c", "", "json or yaml config file applied over Cargo.toml metadata")
}
