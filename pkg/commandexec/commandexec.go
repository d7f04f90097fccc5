// Package commandexec runs named commands with arguments, either on the host
// machine or inside a build container, and returns a structured result.
package commandexec

import (
	"context"
	"io"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
)

var log = logger.NewScoped("CMDEXEC")

// Options holds per-invocation settings for a command execution.
type Options struct {
	// WorkDir is the working directory to run the command in. Empty means
	// the executor's default.
	WorkDir string
	// Env is an additive overlay on the ambient environment.
	Env map[string]string
	// Timeout kills the command when it expires, treating the command as
	// failed. Zero means no timeout.
	Timeout time.Duration
	// Interactive attaches the command to the terminal's stdin, stdout, and
	// stderr instead of capturing its output.
	Interactive bool
	// Stdin is an optional reader to feed the command's stdin from. Ignored
	// for interactive commands.
	Stdin io.Reader
}

// Result is the structured outcome of a command execution.
type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs a named command with arguments.
type Executor interface {
	Exec(ctx context.Context, command string, args []string, opt Options) Result
}

// Resolver supplies the currently active executor. It is re-evaluated every
// time a step runs, not when the step is registered, so the same step
// definition can target the host or the build container depending on context.
type Resolver func() Executor

// Static returns a Resolver that always resolves to the given executor.
func Static(exec Executor) Resolver {
	return func() Executor {
		return exec
	}
}
