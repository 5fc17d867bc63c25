package cmd

import (
	"fmt"

	"github.com/nanovms/bootimage/constants"
	"github.com/spf13/cobra"
)

// VersionCommand provides version command
func VersionCommand() *cobra.Command {
	var cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Version",
		Run:   printVersion,
	}
	return cmdVersion
}

func printVersion(cmd *cobra.Command, args []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "bootimage version: %s\n", constants.Version)
}
