package cmd

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/constants"
	"github.com/nanovms/bootimage/log"
	"github.com/spf13/cobra"
)

func exitWithError(errs string) {
	fmt.Println(fmt.Sprintf(constants.ErrorColor, errs))
	os.Exit(1)
}

func exitForCmd(cmd *cobra.Command, errs string) {
	fmt.Println(fmt.Sprintf(constants.ErrorColor, errs))
	cmd.Help()
	os.Exit(1)
}

// exitOnError prints err and exits. The stack trace goes to the error level
// log.
func exitOnError(err error) {
	if err == nil {
		return
	}
	var stackErr *errors.Error
	if errors.As(err, &stackErr) {
		log.Errorf("%s", stackErr.ErrorStack())
	}
	exitWithError(err.Error())
}
