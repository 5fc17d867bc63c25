package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-errors/errors"
)

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries are appended to the current environment.
	Env []string
	// Quiet captures stdout/stderr instead of forwarding them. The captured
	// output is attached to the ExitError on failure.
	Quiet bool
}

// String returns the command line as typed in a shell.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

//go:generate mockgen -destination=mock_tools/runner.go -package=mock_tools . Runner

// Runner launches external processes and waits for them.
type Runner interface {
	// Run executes c. A non-zero exit status yields an *ExitError.
	Run(ctx context.Context, c Command) error
	// Output executes c and returns what it wrote to stdout.
	Output(ctx context.Context, c Command) ([]byte, error)
}

// ExitError reports a process that ran but did not exit with status 0.
type ExitError struct {
	Command  Command
	ExitCode int
	Output   []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command.String(), e.ExitCode)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner attached to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// Run executes c and waits for it.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	var out bytes.Buffer
	if c.Quiet {
		cmd.Stdout = &out
		cmd.Stderr = &out
	} else {
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	}
	return wrapExit(c, cmd.Run(), out.Bytes())
}

// Output executes c and returns its stdout.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if !c.Quiet {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, wrapExit(c, err, stderr.Bytes())
	}
	return out, nil
}

func wrapExit(c Command, err error, output []byte) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: c, ExitCode: exitErr.ExitCode(), Output: output}
	}
	return errors.Wrap(err, 1)
}
