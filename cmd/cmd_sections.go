package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nanovms/bootimage/section"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// SectionsCommand lists the sections of an executable
func SectionsCommand() *cobra.Command {
	var cmdSections = &cobra.Command{
		Use:   "sections <ELF file>",
		Short: "List the sections of an ELF executable",
		Args:  cobra.ExactArgs(1),
		Run:   sectionsCommandHandler,
	}
	cmdSections.Flags().String("extract", "", "write the raw bytes of the named section to stdout")

	return cmdSections
}

func sectionsCommandHandler(cmd *cobra.Command, args []string) {
	data, err := afero.ReadFile(afero.NewOsFs(), args[0])
	if err != nil {
		exitForCmd(cmd, err.Error())
	}

	name, _ := cmd.Flags().GetString("extract")
	if name != "" {
		raw, err := section.Extract(data, name)
		if err != nil {
			exitWithError(err.Error())
		}
		os.Stdout.Write(raw)
		return
	}

	if err := printSections(os.Stdout, data); err != nil {
		exitWithError(err.Error())
	}
}

func printSections(w io.Writer, data []byte) error {
	sections, err := section.List(data)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Flags", "Offset", "Size"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor})
	table.SetAutoFormatHeaders(false)

	for _, s := range sections {
		if s.Name == "" {
			continue
		}
		var row []string
		row = append(row, s.Name)
		row = append(row, strings.TrimPrefix(s.Type.String(), "SHT_"))
		row = append(row, s.Flags.String())
		row = append(row, fmt.Sprintf("0x%x", s.Offset))
		row = append(row, humanize.IBytes(s.Size))
		table.Append(row)
	}

	table.Render()
	return nil
}
