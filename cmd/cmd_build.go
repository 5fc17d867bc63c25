package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nanovms/bootimage/build"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/tools"
	"github.com/nanovms/bootimage/types"
	"github.com/nanovms/bootimage/util"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newCollaborators returns the file system and process runner of a build.
var newCollaborators = func() (afero.Fs, tools.Runner) {
	return afero.NewOsFs(), tools.NewExecRunner()
}

// BuildCommand compiles the kernel and the bootloader and writes the disk image
func BuildCommand() *cobra.Command {
	var cmdBuild = &cobra.Command{
		Use:   "build [flags] [cargo args] [-- cargo args]",
		Short: "Build a bootable disk image from the kernel crate",
		Long: "Build a bootable disk image from the kernel crate.\n" +
			"Arguments that are not bootimage flags are passed to the kernel build.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		Run:                buildCommandHandler,
	}

	persistentFlags := cmdBuild.PersistentFlags()

	PersistConfigCommandFlags(persistentFlags)
	PersistBuildCommandFlags(persistentFlags)

	return cmdBuild
}

func buildCommandHandler(cmd *cobra.Command, args []string) {
	res, err := buildImage(cmd, args)
	exitOnError(err)
	if res != nil {
		fmt.Printf("Bootable disk image: %s\n", res.Image.Path)
	}
}

// buildImage returns a nil result when only help was requested.
func buildImage(cmd *cobra.Command, args []string) (*build.Result, error) {
	cargoArgs, afterDash, err := parseForwardedArgs(cmd, args)
	if err != nil || showHelp(cmd) {
		return nil, err
	}

	opts, err := newBuildOptions(cmd.Context(), cmd, append(cargoArgs, afterDash...), nil)
	if err != nil {
		return nil, err
	}
	return build.Build(cmd.Context(), opts)
}

// newBuildOptions assembles the configuration in order of precedence:
// defaults, Cargo.toml metadata, config file, command line.
func newBuildOptions(ctx context.Context, cmd *cobra.Command, cargoArgs, runArgs []string) (build.Options, error) {
	flags := cmd.Flags()

	globalFlags := NewGlobalCommandFlags(flags)
	configFlags := NewConfigCommandFlags(flags)
	buildFlags := NewBuildCommandFlags(flags)

	c := types.NewConfig()
	fs, runner := newCollaborators()
	opts := build.Options{
		Config: c,
		Fs:     fs,
		Runner: runner,
	}
	if err := globalFlags.MergeToConfig(c); err != nil {
		return opts, err
	}
	log.InitDefault(os.Stdout, c)

	metadata, err := build.LoadProject(ctx, opts.Fs, opts.Runner, buildFlags.ManifestPath, c)
	if err != nil {
		return opts, err
	}
	opts.Metadata = metadata

	mergeConfigContainer := NewMergeConfigContainer(configFlags, globalFlags, buildFlags)
	if err := mergeConfigContainer.Merge(c); err != nil {
		return opts, err
	}
	c.BuildConfig.CargoArgs = cargoArgs
	c.RunConfig.Args = runArgs

	if c.RunConfig.Progress {
		opts.Stepper = util.NewProgressSpinner(os.Stdout)
		opts.Progress = os.Stdout
	}

	return opts, nil
}
