package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ShellRequest is a script execution request.
type ShellRequest struct {
	// Dir is the working directory of the script.
	Dir string
	// Env is the whole environment of the script, as `KEY=VALUE` entries.
	Env    []string
	Script string
	Stdout io.Writer
	Stderr io.Writer
}

// ShellRunner runs RUN layer scripts.
type ShellRunner interface {
	Run(ctx context.Context, req ShellRequest) error
}

// ShellRunnerFunc is a helper to use functions as ShellRunner.
type ShellRunnerFunc func(ctx context.Context, req ShellRequest) error

func (f ShellRunnerFunc) Run(ctx context.Context, req ShellRequest) error { return f(ctx, req) }

// InterpShell runs scripts with an in-process POSIX shell interpreter. Builtins are
// run by the interpreter and any other command is executed on the host.
type InterpShell struct{}

// Run parses and runs the script, a non-zero exit status is returned as an error.
func (InterpShell) Run(ctx context.Context, req ShellRequest) error {
	prog, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(req.Script), "script")
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(req.Dir),
		interp.Env(expand.ListEnviron(req.Env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return fmt.Errorf("script exited with status %d", exitStatus)
		}
		return fmt.Errorf("script execution failed: %w", err)
	}

	return nil
}
