package buildcontainer

import (
	"context"
	"strings"

	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
)

// Container is an ephemeral Docker container owned exclusively by one
// workflow run.
type Container struct {
	name         string
	workspaceDir string
	host         commandexec.Executor
	warm         bool
	lost         bool
}

// Name returns the Docker container name.
func (c *Container) Name() string {
	return c.name
}

// WorkspaceDir returns the directory inside the container that the project
// tree is copied to.
func (c *Container) WorkspaceDir() string {
	return c.workspaceDir
}

// Warm reports whether the container was reused from a previous build.
func (c *Container) Warm() bool {
	return c.warm
}

// Alive reports whether the container is still running.
func (c *Container) Alive(ctx context.Context) bool {
	res := c.host.Exec(ctx, "docker",
		[]string{"inspect", "--format", "{{.State.Running}}", c.name},
		commandexec.Options{Timeout: commandTimeout})
	return res.Success && strings.TrimSpace(res.Stdout) == "true"
}

// Executor returns a command executor that runs commands inside this
// container. Once the container has been detected as lost (e.g. OOM-killed
// by the host mid-build) all subsequent executions fail immediately with a
// container-unavailable error.
func (c *Container) Executor() commandexec.Executor {
	return checkedExecutor{
		inner: commandexec.NewContainer(c.host, c.name),
		ctr:   c,
	}
}

type checkedExecutor struct {
	inner commandexec.Executor
	ctr   *Container
}

func (e checkedExecutor) Exec(ctx context.Context, command string, args []string, opt commandexec.Options) commandexec.Result {
	if e.ctr.lost {
		return lostResult()
	}
	res := e.inner.Exec(ctx, command, args, opt)
	if !res.Success && ctx.Err() == nil && !e.ctr.Alive(ctx) {
		e.ctr.lost = true
		log.Error().
			WithString("container", e.ctr.name).
			Message("Build container was lost mid-build.")
		return lostResult()
	}
	return res
}

func lostResult() commandexec.Result {
	return commandexec.Result{
		Success:  false,
		ExitCode: -1,
		Stderr:   ErrContainerLost.Error(),
	}
}
