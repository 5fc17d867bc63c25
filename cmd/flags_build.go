package cmd

import (
	"path/filepath"
	"strings"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/types"
	"github.com/nanovms/bootimage/util"
	"github.com/spf13/pflag"
)

// BuildCommandFlags consolidates the flags that tune a kernel and disk image build
type BuildCommandFlags struct {
	Target           string
	Release          bool
	ManifestPath     string
	UpdateBootloader bool
	Output           string
	MinimumSize      string

	// ReleaseSet and UpdateBootloaderSet record whether the boolean flags
	// were given, so unset flags keep the configured values.
	ReleaseSet          bool
	UpdateBootloaderSet bool
}

// MergeToConfig overrides configuration passed by argument with build flags values
func (flags *BuildCommandFlags) MergeToConfig(c *types.Config) error {
	if flags.Target != "" {
		c.BuildConfig.Target = flags.Target
	}
	if flags.ReleaseSet {
		c.BuildConfig.Release = flags.Release
	}
	if flags.UpdateBootloaderSet {
		c.BuildConfig.UpdateBootloader = flags.UpdateBootloader
	}

	if flags.ManifestPath != "" {
		path, err := filepath.Abs(flags.ManifestPath)
		if err != nil {
			return errors.Wrap(err, 1)
		}
		c.ManifestPath = path
	}

	if flags.Output != "" {
		c.Output = flags.Output
	}

	if flags.MinimumSize != "" {
		if _, err := util.ParseSize(flags.MinimumSize); err != nil {
			return err
		}
		c.MinimumImageSize = types.Size(flags.MinimumSize)
	}

	return nil
}

// NewBuildCommandFlags returns an instance of BuildCommandFlags initialized with command flags values
func NewBuildCommandFlags(cmdFlags *pflag.FlagSet) (flags *BuildCommandFlags) {
	flags = &BuildCommandFlags{}

	flags.Target, _ = cmdFlags.GetString("target")
	flags.Release, _ = cmdFlags.GetBool("release")
	flags.ManifestPath, _ = cmdFlags.GetString("manifest-path")
	flags.UpdateBootloader, _ = cmdFlags.GetBool("update-bootloader")
	flags.Output, _ = cmdFlags.GetString("output")
	flags.MinimumSize, _ = cmdFlags.GetString("minimum-size")
	flags.ReleaseSet = cmdFlags.Changed("release")
	flags.UpdateBootloaderSet = cmdFlags.Changed("update-bootloader")

	flags.Target = strings.TrimSpace(flags.Target)
	flags.ManifestPath = strings.TrimSpace(flags.ManifestPath)

	return
}

// PersistBuildCommandFlags append a command the required flags to build a disk image
func PersistBuildCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.String("target", "", "kernel target triple or target specification")
	cmdFlags.Bool("release", false, "build the kernel with the release profile")
	cmdFlags.String("manifest-path", "", "path to the kernel Cargo.toml")
	cmdFlags.Bool("update-bootloader", false, "resolve the bootloader dependency again instead of using the saved lock file")
	cmdFlags.StringP("output", "o", "", "disk image path")
	cmdFlags.String("minimum-size", "", "zero-extend the disk image to at least this size (e.g. 4MiB)")
}
