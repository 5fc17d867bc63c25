package build

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/constants"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/tools"
	"github.com/nanovms/bootimage/types"
	"github.com/nanovms/bootimage/util/slice"
)

// RunCommand expands the run command template of c. Every "{}" in an
// argument becomes the output path, the program name is used as is and args
// are appended verbatim.
func RunCommand(c *types.Config, args []string) (tools.Command, error) {
	tokens := slice.ExcludeWhitespaces(c.RunCommand)
	if len(tokens) == 0 {
		return tools.Command{}, errors.New("run command is empty")
	}
	runArgs := slice.ReplaceInEach(tokens[1:], constants.OutputPlaceholder, c.Output)

	return tools.Command{
		Name: tokens[0],
		Args: append(runArgs, args...),
	}, nil
}

// Run builds the disk image and launches it. The exit status of the
// launcher is reported but not treated as a failure.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res, err := Build(ctx, opts)
	if err != nil {
		return nil, err
	}

	c, err := RunCommand(opts.Config, opts.Config.RunConfig.Args)
	if err != nil {
		return nil, err
	}
	log.Step("Running: %s", c.String())

	if err := opts.Runner.Run(ctx, c); err != nil {
		var exitErr *tools.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		log.Warn("%s exited with status %d", c.Name, exitErr.ExitCode)
	}
	return res, nil
}
