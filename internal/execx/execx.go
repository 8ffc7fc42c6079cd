// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package execx wraps external command execution behind a structured result.
// Every stage that shells out to the PDF toolchain goes through a Runner, so
// exit codes, captured output, and timeouts are handled uniformly and tests
// can substitute a fake.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result is the structured outcome of one command invocation.
type Result struct {
	// Code is the process exit code. -1 when the process did not run or was
	// killed before exiting normally.
	Code int

	Stdout string
	Stderr string

	// TimedOut reports whether the command was killed by its deadline.
	// A timeout is a soft failure: callers treat it like any non-zero exit.
	TimedOut bool
}

// OK reports whether the command ran to completion with exit code zero.
func (r Result) OK() bool {
	return r.Code == 0 && !r.TimedOut
}

// Runner executes external commands. The production implementation is backed
// by os/exec; tests supply fakes keyed on the binary name.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) Result
}

type osRunner struct{}

// New returns the production Runner.
func New() Runner {
	return osRunner{}
}

func (osRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	switch {
	case err == nil:
		res.Code = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Code = exitErr.ExitCode()
		} else {
			// Binary missing, not executable, or killed before exec.
			res.Code = -1
			if res.Stderr == "" {
				res.Stderr = err.Error()
			}
		}
	}
	return res
}
