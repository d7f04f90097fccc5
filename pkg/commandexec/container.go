package commandexec

import (
	"context"

	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
)

// NewContainer returns an Executor that runs commands inside the named Docker
// container via "docker exec". The host executor is used to spawn the docker
// CLI itself.
func NewContainer(host Executor, containerName string) Executor {
	return containerExecutor{
		host: host,
		name: containerName,
	}
}

type containerExecutor struct {
	host Executor
	name string
}

func (e containerExecutor) Exec(ctx context.Context, command string, args []string, opt Options) Result {
	b := argbuilder.New("exec").
		AddNonEmpty("--workdir", opt.WorkDir).
		AddKeyValues("--env", opt.Env).
		AddIf(opt.Interactive, "--interactive", "--tty").
		AddIf(!opt.Interactive && opt.Stdin != nil, "--interactive").
		Add(e.name, command).
		Add(args...)
	// WorkDir and Env are translated to docker exec flags; they must not
	// apply to the docker CLI process itself.
	return e.host.Exec(ctx, "docker", b.Args(), Options{
		Timeout:     opt.Timeout,
		Interactive: opt.Interactive,
		Stdin:       opt.Stdin,
	})
}
