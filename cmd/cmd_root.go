package cmd

import (
	"os"

	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/types"
	"github.com/spf13/cobra"
)

// GetRootCommand provides set all commands for bootimage
func GetRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "bootimage",
		Short: "Create bootable disk images from a kernel crate",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := types.NewConfig()

			globalFlags := NewGlobalCommandFlags(cmd.Flags())
			if err := globalFlags.MergeToConfig(config); err != nil {
				return err
			}

			log.InitDefault(os.Stdout, config)
			return nil
		},
	}

	// persist flags transversal to every command
	PersistGlobalCommandFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(BuildCommand())
	rootCmd.AddCommand(RunCommand())
	rootCmd.AddCommand(SectionsCommand())
	rootCmd.AddCommand(VersionCommand())

	return rootCmd
}
