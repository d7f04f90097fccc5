// Package nestedbuild launches child builds as independent subprocesses of
// the same executable. Each child gets its own container and its own
// lifecycle; the parent only forwards options and waits for the exit code.
package nestedbuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
)

var log = logger.NewScoped("NESTED")

// EnvDepth is the environment variable carrying the nesting depth of a build
// process. It is read once at process start and only ever written onto a
// child's environment, never onto the running process.
const EnvDepth = "SLIPWAY_BUILD_DEPTH"

// DepthFromEnv reads the current process's nesting depth. A missing or
// malformed value means a top-level build, depth 0.
func DepthFromEnv() int {
	value, ok := os.LookupEnv(EnvDepth)
	if !ok {
		return 0
	}
	depth, err := strconv.Atoi(value)
	if err != nil || depth < 0 {
		return 0
	}
	return depth
}

// Options forward a parent build's settings to a single child build.
type Options struct {
	// Path is the child project directory, passed positionally.
	Path string
	// Profiles to activate in the child. Defaults to the parent's active
	// set; the build file entry may override it.
	Profiles []string
	// ForceCold discards any warm container the child might reuse.
	ForceCold bool
	// NoDocker runs the child's steps on the host.
	NoDocker bool
	// Image overrides the child's container image.
	Image string
	// LogLevel is the parent's logging verbosity, forwarded verbatim.
	LogLevel string
}

// Spawner launches child builds by re-invoking the running executable.
type Spawner struct {
	// Executable is the binary to invoke, usually os.Executable().
	Executable string
	// Depth is the parent's nesting depth. Children run at Depth+1.
	Depth int
}

// NewSpawner creates a spawner for the current executable and depth.
func NewSpawner(depth int) (Spawner, error) {
	executable, err := os.Executable()
	if err != nil {
		return Spawner{}, fmt.Errorf("locate own executable: %w", err)
	}
	return Spawner{Executable: executable, Depth: depth}, nil
}

// Args composes the child's command-line arguments.
func (s Spawner) Args(opt Options) []string {
	b := argbuilder.New("run")
	b.AddIf(opt.Path != "", opt.Path)
	for _, p := range opt.Profiles {
		b.Add("--profile", p)
	}
	b.AddIf(opt.ForceCold, "--cold")
	b.AddIf(opt.NoDocker, "--docker=false")
	b.AddNonEmpty("--image", opt.Image)
	b.AddNonEmpty("--loglevel", opt.LogLevel)
	return b.Args()
}

// Run launches a child build and waits for it to finish. The child's output
// is streamed through an indenting writer so nested logs are visually
// distinguishable from the parent's.
func (s Spawner) Run(ctx context.Context, opt Options) error {
	args := s.Args(opt)
	log.Debug().
		WithString("path", opt.Path).
		WithInt("depth", s.Depth+1).
		Message("Spawning nested build.")

	cmd := exec.CommandContext(ctx, s.Executable, args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", EnvDepth, s.Depth+1))
	out := NewIndentWriter(os.Stdout, s.Depth+1)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("nested build %q exited with code %d",
				opt.Path, exitErr.ExitCode())
		}
		return fmt.Errorf("nested build %q: %w", opt.Path, err)
	}
	return nil
}
