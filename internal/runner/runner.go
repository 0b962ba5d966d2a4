// Package runner executes external build tools.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Cmd is one external invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string

	// Env is the complete environment of the child. Nil inherits the
	// current process environment.
	Env []string
}

// String renders the command line for logs and errors.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs a command to completion. A non-zero exit is reported as
// *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) error
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Cmd  Cmd
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
}

// Exec runs commands as child processes, streaming their output.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*Exec)(nil)

// Run starts cmd and waits for it. When ctx is done the whole process
// group of the child is killed.
func (e *Exec) Run(ctx context.Context, cmd Cmd) error {
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = orDefault(e.Stdout, os.Stdout)
	c.Stderr = orDefault(e.Stderr, os.Stderr)
	setProcessGroup(c)

	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Name, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			killProcessGroup(c)
		case <-done:
		}
	}()

	err := c.Wait()
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", cmd, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Cmd: cmd, Code: exitErr.ExitCode()}
	}
	return err
}

func orDefault(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
