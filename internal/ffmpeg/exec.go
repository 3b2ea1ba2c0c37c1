package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
)

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs tool commands with injectable dependencies.
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes path with args and returns stdout followed by stderr.
// ffmpeg prints diagnostics to stderr while yt-dlp prints its version to
// stdout, so both streams are kept.
func (e *Executor) RunOutput(ctx context.Context, path string, args []string) (string, error) {
	return e.runOutput(ctx, path, args)
}

// defaultRunOutput returns the output even when the command fails, since
// ffmpeg often exits non-zero for informational invocations.
func defaultRunOutput(ctx context.Context, path string, args []string) (string, error) {
	// #nosec G204 -- path comes from Resolver, args are built internally
	cmd := exec.CommandContext(ctx, path, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}
