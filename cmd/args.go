package cmd

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// parseForwardedArgs parses the bootimage flags found in args into
// cmd.Flags(). Everything else given before "--" is returned as forwarded,
// everything after it as afterDash.
func parseForwardedArgs(cmd *cobra.Command, args []string) (forwarded, afterDash []string, err error) {
	cmd.InitDefaultHelpFlag()
	// merges the persistent flags of the parents into cmd.Flags()
	cmd.InheritedFlags()

	flags := cmd.Flags()
	own, forwarded, afterDash := splitForwardedArgs(flags, args)
	if err := flags.Parse(own); err != nil {
		return nil, nil, errors.Wrap(err, 1)
	}
	return forwarded, afterDash, nil
}

func splitForwardedArgs(flags *pflag.FlagSet, args []string) (own, forwarded, afterDash []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return own, forwarded, append([]string{}, args[i+1:]...)
		}

		f, inline := lookupFlag(flags, arg)
		if f == nil {
			forwarded = append(forwarded, arg)
			continue
		}
		own = append(own, arg)
		if f.NoOptDefVal == "" && !inline && i+1 < len(args) {
			i++
			own = append(own, args[i])
		}
	}
	return own, forwarded, nil
}

// lookupFlag returns the flag named by arg and whether arg carries its value.
func lookupFlag(flags *pflag.FlagSet, arg string) (*pflag.Flag, bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name := arg[2:]
		inline := strings.Contains(name, "=")
		if inline {
			name = name[:strings.Index(name, "=")]
		}
		return flags.Lookup(name), inline
	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		return flags.ShorthandLookup(arg[1:2]), len(arg) > 2
	}
	return nil, false
}

func showHelp(cmd *cobra.Command) bool {
	help, err := cmd.Flags().GetBool("help")
	if err != nil || !help {
		return false
	}
	cmd.Help()
	return true
}
