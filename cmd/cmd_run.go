package cmd

import (
	"github.com/nanovms/bootimage/build"
	"github.com/spf13/cobra"
)

// RunCommand builds the disk image and launches it with the configured run command
func RunCommand() *cobra.Command {
	var cmdRun = &cobra.Command{
		Use:   "run [flags] [cargo args] [-- run args]",
		Short: "Build the disk image and run it",
		Long: "Build the disk image and run it.\n" +
			"Arguments that are not bootimage flags are passed to the kernel build,\n" +
			"arguments after -- are appended to the run command.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		Run:                runCommandHandler,
	}

	persistentFlags := cmdRun.PersistentFlags()

	PersistConfigCommandFlags(persistentFlags)
	PersistBuildCommandFlags(persistentFlags)

	return cmdRun
}

func runCommandHandler(cmd *cobra.Command, args []string) {
	exitOnError(runImage(cmd, args))
}

func runImage(cmd *cobra.Command, args []string) error {
	cargoArgs, runArgs, err := parseForwardedArgs(cmd, args)
	if err != nil || showHelp(cmd) {
		return err
	}

	opts, err := newBuildOptions(cmd.Context(), cmd, cargoArgs, runArgs)
	if err != nil {
		return err
	}
	_, err = build.Run(cmd.Context(), opts)
	return err
}
