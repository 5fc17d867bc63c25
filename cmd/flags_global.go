package cmd

import (
	"os"

	"github.com/nanovms/bootimage/types"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// stdoutIsTerminal reports whether progress indicators can be drawn.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GlobalCommandFlags are flags accepted by every command
type GlobalCommandFlags struct {
	ShowWarnings bool
	ShowErrors   bool
	ShowDebug    bool
	Verbose      bool
	NoProgress   bool
}

// MergeToConfig append command flags that are used transversally for all commands to configuration
func (flags *GlobalCommandFlags) MergeToConfig(config *types.Config) (err error) {
	config.RunConfig.ShowWarnings = flags.ShowWarnings
	config.RunConfig.ShowErrors = flags.ShowErrors
	config.RunConfig.ShowDebug = flags.ShowDebug
	config.RunConfig.Verbose = flags.Verbose
	config.RunConfig.Progress = !flags.NoProgress && stdoutIsTerminal()

	return
}

// NewGlobalCommandFlags returns an instance of GlobalCommandFlags
func NewGlobalCommandFlags(cmdFlags *pflag.FlagSet) (flags *GlobalCommandFlags) {
	flags = &GlobalCommandFlags{}

	flags.ShowWarnings, _ = cmdFlags.GetBool("show-warnings")
	flags.ShowErrors, _ = cmdFlags.GetBool("show-errors")
	flags.ShowDebug, _ = cmdFlags.GetBool("show-debug")
	flags.Verbose, _ = cmdFlags.GetBool("verbose")
	flags.NoProgress, _ = cmdFlags.GetBool("no-progress")

	return flags
}

// PersistGlobalCommandFlags append the global flags to a command
func PersistGlobalCommandFlags(cmdFlags *pflag.FlagSet) {
	cmdFlags.Bool("show-warnings", false, "display warning messages")
	cmdFlags.Bool("show-errors", false, "display error messages")
	cmdFlags.Bool("show-debug", false, "display debug messages")
	cmdFlags.BoolP("verbose", "v", false, "display info messages")
	cmdFlags.Bool("no-progress", false, "disable spinner and progress bar")
}
