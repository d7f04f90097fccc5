// Package buildcontainer provisions the ephemeral Docker-in-Docker sandbox
// that build steps execute in, copies the workspace into it, and tears it
// down after the build.
package buildcontainer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
	"github.com/slipway-ci/slipway-cmd/pkg/workspace"
	"gopkg.in/typ.v4/sync2"
)

var log = logger.NewScoped("CONTAINER")

var (
	// ErrDockerUnreachable means the Docker daemon did not respond.
	ErrDockerUnreachable = errors.New("docker daemon unreachable")
	// ErrRootfulDocker means the Docker daemon is running as root. Build
	// scripts are semi-trusted, so a rootful daemon is refused.
	ErrRootfulDocker = errors.New("docker daemon is running rootful; a rootless daemon is required")
	// ErrContainerLost means the build container disappeared mid-build,
	// such as when the host OOM-killed it.
	ErrContainerLost = errors.New("build container is no longer running")
	// ErrContainerReserved means the build container is already owned by
	// another concurrently running build.
	ErrContainerReserved = errors.New("build container is reserved by another build")
)

const (
	namePrefix = "slipway-"

	preflightTimeout = 30 * time.Second
	commandTimeout   = time.Minute
	createTimeout    = 15 * time.Minute
	syncInTimeout    = 10 * time.Minute
)

// Options controls how a build container is provisioned.
type Options struct {
	// Image is the container image to run build steps in.
	Image string
	// WorkspaceDir is the directory inside the container that the project
	// tree is copied to.
	WorkspaceDir string
	// ProjectDir is the host project directory being built. Containers are
	// per-project, so a nested build never resolves to its parent's
	// container.
	ProjectDir string
	// ForceCold always provisions a brand-new container, guaranteeing
	// reproducibility at the cost of image-layer setup time. When unset an
	// existing container matching the image and workspace config is reused.
	ForceCold bool
	// BuildID distinguishes containers of concurrent builds.
	BuildID uint
}

// Manager provisions and tears down build containers through the docker CLI
// on the host.
type Manager struct {
	host     commandexec.Executor
	reserved sync2.Map[string, uint]
	// reservationDir holds per-container reservation files, marking names
	// owned by running builds in any process. Empty means the default
	// per-user directory.
	reservationDir string
}

// NewManager returns a Manager that spawns the docker CLI through the given
// host executor.
func NewManager(host commandexec.Executor) *Manager {
	return &Manager{host: host}
}

// Preflight verifies that the Docker daemon is reachable and running
// rootless. A failed preflight is fatal: the build never starts.
func (m *Manager) Preflight(ctx context.Context) error {
	res := m.host.Exec(ctx, "docker",
		[]string{"info", "--format", "{{json .SecurityOptions}}"},
		commandexec.Options{Timeout: preflightTimeout})
	if !res.Success {
		return fmt.Errorf("%w: %s", ErrDockerUnreachable, strings.TrimSpace(res.Stderr))
	}
	if !strings.Contains(res.Stdout, "name=rootless") {
		return ErrRootfulDocker
	}
	log.Debug().Message("Docker daemon is reachable and rootless.")
	return nil
}

// Provision returns a build container for the given options, either reusing
// a warm container or creating a cold one. The returned container is owned
// exclusively by the calling build until Teardown.
func (m *Manager) Provision(ctx context.Context, opt Options) (*Container, error) {
	name := deriveName(opt.Image, opt.WorkspaceDir, opt.ProjectDir)
	if !m.reserve(name, opt.BuildID) {
		// The warm container belongs to another running build, possibly in
		// another process such as a parent of a nested build. Containers
		// are never shared across concurrent builds, so fall back to a
		// cold container with a unique name.
		name = fmt.Sprintf("%s-b%d", name, opt.BuildID)
		opt.ForceCold = true
		if !m.reserve(name, opt.BuildID) {
			return nil, fmt.Errorf("%w: %s", ErrContainerReserved, name)
		}
	}
	warm := false
	if !opt.ForceCold && m.containerExists(ctx, name) {
		res := m.host.Exec(ctx, "docker", []string{"start", name},
			commandexec.Options{Timeout: commandTimeout})
		if res.Success {
			warm = true
		} else {
			log.Warn().
				WithString("container", name).
				Message("Failed to start existing container. Provisioning a cold one.")
		}
	}
	if !warm {
		// A stale container may exist under this name, e.g. from a crashed
		// build or when a cold start was forced. Errors are ignored as the
		// name is most often simply unused.
		m.host.Exec(ctx, "docker", []string{"rm", "--force", name},
			commandexec.Options{Timeout: commandTimeout})
		b := argbuilder.New("run", "--detach", "--name", name).
			Add(opt.Image).
			Add("sleep", "infinity")
		res := m.host.Exec(ctx, "docker", b.Args(),
			commandexec.Options{Timeout: createTimeout})
		if !res.Success {
			m.release(name)
			return nil, fmt.Errorf("create container %q from image %q: %s",
				name, opt.Image, strings.TrimSpace(res.Stderr))
		}
	}
	log.Info().
		WithString("container", name).
		WithString("image", opt.Image).
		WithBool("warm", warm).
		Message("Provisioned build container.")
	return &Container{
		name:         name,
		workspaceDir: opt.WorkspaceDir,
		host:         m.host,
		warm:         warm,
	}, nil
}

// SyncIn copies the staged workspace tarball into the container workspace.
// The workspace is copied rather than bind-mounted to preserve isolation
// between host and semi-trusted build scripts. A sync-in failure is fatal:
// the build never starts.
func (m *Manager) SyncIn(ctx context.Context, ctr *Container, tarball workspace.Tarball) error {
	res := ctr.Executor().Exec(ctx, "mkdir", []string{"-p", ctr.workspaceDir},
		commandexec.Options{Timeout: commandTimeout})
	if !res.Success {
		return fmt.Errorf("create workspace dir %q in container: %s",
			ctr.workspaceDir, strings.TrimSpace(res.Stderr))
	}
	file, err := tarball.Open()
	if err != nil {
		return fmt.Errorf("open workspace tarball: %w", err)
	}
	defer file.Close()
	log.Info().
		WithString("container", ctr.name).
		WithString("workspace", ctr.workspaceDir).
		Message("Copying workspace into container.")
	res = m.host.Exec(ctx, "docker",
		[]string{"cp", "-", ctr.name + ":" + ctr.workspaceDir},
		commandexec.Options{Stdin: file, Timeout: syncInTimeout})
	if !res.Success {
		return fmt.Errorf("copy workspace into container: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Teardown removes the container regardless of the build outcome, unless
// retain is set for debugging.
func (m *Manager) Teardown(ctx context.Context, ctr *Container, retain bool) {
	m.release(ctr.name)
	if retain {
		log.Info().
			WithString("container", ctr.name).
			Message("Retaining build container.")
		return
	}
	res := m.host.Exec(ctx, "docker", []string{"rm", "--force", ctr.name},
		commandexec.Options{Timeout: commandTimeout})
	if !res.Success {
		log.Warn().
			WithString("container", ctr.name).
			Message("Failed to remove build container.")
		return
	}
	log.Debug().
		WithString("container", ctr.name).
		Message("Removed build container.")
}

func (m *Manager) containerExists(ctx context.Context, name string) bool {
	res := m.host.Exec(ctx, "docker",
		[]string{"ps", "--all", "--quiet", "--filter", "name=^" + name + "$"},
		commandexec.Options{Timeout: commandTimeout})
	return res.Success && strings.TrimSpace(res.Stdout) != ""
}

func deriveName(image, workspaceDir, projectDir string) string {
	sum := sha256.Sum256([]byte(image + "\x00" + workspaceDir + "\x00" + projectDir))
	return namePrefix + hex.EncodeToString(sum[:])[:12]
}
