package commandexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
)

// NewHost returns an Executor that spawns processes on the machine running
// the orchestrator. It is used for tools whose credentials or state live on
// the host, such as version control or an interactively authenticated cloud
// CLI.
func NewHost() Executor {
	return hostExecutor{}
}

type hostExecutor struct{}

func (hostExecutor) Exec(ctx context.Context, command string, args []string, opt Options) Result {
	bin, err := safeexec.LookPath(command)
	if err != nil {
		return spawnFailure(err)
	}
	if opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.Timeout)
		defer cancel()
	}
	cmd := exec.Command(bin, args...)
	cmd.Dir = opt.WorkDir
	cmd.Env = append(os.Environ(), argbuilder.SortedKeyValues(opt.Env)...)

	var stdout, stderr bytes.Buffer
	if opt.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdin = opt.Stdin
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdout)
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
		// Commands like sh -c spawn grandchildren that inherit the output
		// pipes. Killing only the direct child would leave them running
		// and block Wait on the pipes, so the whole group is killed.
		setProcessGroup(cmd)
	}

	log.Debug().
		WithString("command", command).
		WithInt("args", len(args)).
		Message("Spawning process.")
	err = cmd.Start()
	if err == nil {
		waitDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				if opt.Interactive {
					if cmd.Process != nil {
						cmd.Process.Kill()
					}
				} else {
					killProcessTree(cmd)
				}
			case <-waitDone:
			}
		}()
		err = cmd.Wait()
		close(waitDone)
	}
	res := Result{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err == nil {
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
		res.Stderr = appendLine(res.Stderr, err.Error())
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.Stderr = appendLine(res.Stderr,
			fmt.Sprintf("command timed out after %s", opt.Timeout))
		log.Warn().
			WithString("command", command).
			WithDuration("timeout", opt.Timeout).
			Message("Killed command that exceeded its timeout.")
	}
	return res
}

func spawnFailure(err error) Result {
	return Result{
		Success:  false,
		ExitCode: -1,
		Stderr:   err.Error(),
	}
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s + line
}
