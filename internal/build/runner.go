package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Command is one external build step.
type Command struct {
	Dir  string
	Name string
	Args []string
	// Env entries are appended to the process environment.
	Env []string
}

func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Runner executes build steps. The orchestrator never retries a failed step.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// CommandError reports a failed build step.
// errors.Is matches pgbundle.ErrBuildFailed.
type CommandError struct {
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (in %s): %v", e.Command, e.Command.Dir, e.Err)
}

func (e *CommandError) Unwrap() []error {
	return []error{pgbundle.ErrBuildFailed, e.Err}
}

// ExecRunner runs commands as child processes, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger pgbundle.Logger
}

// NewExecRunner creates a runner that streams to the process's stderr,
// keeping stdout free for command results.
func NewExecRunner(logger pgbundle.Logger) *ExecRunner {
	return &ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr, Logger: logger}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if r.Logger != nil {
		r.Logger.Verbose("$ %s", cmd)
	}
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if err := c.Run(); err != nil {
		return &CommandError{Command: cmd, Err: err}
	}
	return nil
}
