// Package build orchestrates a single build: it parses the build file,
// provisions the build container, registers the workflow steps, runs them,
// and transfers artifacts out on success.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/slipway-ci/slipway-cmd/internal/filecopy"
	"github.com/slipway-ci/slipway-cmd/pkg/artifact"
	"github.com/slipway-ci/slipway-cmd/pkg/buildcontainer"
	"github.com/slipway-ci/slipway-cmd/pkg/buildfile"
	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
	"github.com/slipway-ci/slipway-cmd/pkg/config"
	"github.com/slipway-ci/slipway-cmd/pkg/deferred"
	"github.com/slipway-ci/slipway-cmd/pkg/profile"
	"github.com/slipway-ci/slipway-cmd/pkg/workflow"
	"github.com/slipway-ci/slipway-cmd/pkg/workspace"
)

var log = logger.NewScoped("BUILD")

const teardownTimeout = 2 * time.Minute

// Options holds the per-invocation settings of a build.
type Options struct {
	// ProjectDir is the directory containing the build file.
	ProjectDir string
	// BuildID distinguishes this build's container from concurrent builds.
	BuildID uint
	// Depth is this build's nesting depth. Top-level builds run at 0.
	Depth int
	// Profiles are the names of profile env files to activate.
	Profiles []string
	// ExtraEnv is appended to every step's environment, overriding both
	// profile and build file values.
	ExtraEnv map[string]string
	// ForceCold discards any warm container before the build.
	ForceCold bool
	// NoDocker runs all steps on the host instead of in a container.
	NoDocker bool
	// Image overrides both the configured and the build file's image.
	Image string
	// Retain keeps the container alive after the build.
	Retain bool
	// LogLevel is forwarded verbatim to nested builds.
	LogLevel string
}

// Builder runs builds. A single Builder may be reused for multiple builds.
type Builder struct {
	cfg  config.Config
	host commandexec.Executor
}

// New returns a Builder executing host-side commands with the default host
// executor.
func New(cfg config.Config) *Builder {
	return &Builder{cfg: cfg, host: commandexec.NewHost()}
}

// Run executes a full build of the project and returns the workflow result.
// A failing step yields a failed result, not an error; errors are reserved
// for faults outside the steps themselves, such as an unparsable build file
// or an unreachable Docker daemon.
func (b *Builder) Run(ctx context.Context, opt Options) (workflow.Result, error) {
	def, err := buildfile.ParseFile(filepath.Join(opt.ProjectDir, buildfile.FileName))
	if err != nil {
		return workflow.Result{}, err
	}

	profileEnv, err := b.loadProfiles(opt)
	if err != nil {
		return workflow.Result{}, err
	}

	outputs := deferred.NewOutputs()
	outputs.Set("build.id", fmt.Sprint(opt.BuildID))
	outputs.Set("build.depth", fmt.Sprint(opt.Depth))
	outputs.Set("project.dir", opt.ProjectDir)

	env := b.newEnvironment(def, opt)

	var ctr *buildcontainer.Container
	var mgr *buildcontainer.Manager
	if !opt.NoDocker {
		mgr = buildcontainer.NewManager(b.host)
		ctr, err = b.provision(ctx, mgr, env, opt)
		if err != nil {
			return workflow.Result{}, err
		}
		defer func() {
			// The run's context may already be cancelled; teardown
			// gets its own deadline so containers are not leaked.
			teardownCtx, cancel := context.WithTimeout(
				context.Background(), teardownTimeout)
			defer cancel()
			mgr.Teardown(teardownCtx, ctr, env.retain)
		}()
		outputs.Set("container.name", ctr.Name())
		outputs.Set("container.workspace", ctr.WorkspaceDir())
	}

	wf := b.newWorkflow(ctr, def, env, profileEnv, outputs, opt)

	result := wf.Run(ctx)
	if result.Status == workflow.StatusSuccess && ctr != nil {
		b.transferArtifacts(ctx, ctr, def, env, opt)
	}
	return result, nil
}

// environment is the merged image and directory settings of one build, with
// precedence flag over build file over config.
type environment struct {
	image        string
	workspaceDir string
	retain       bool
}

func (b *Builder) newEnvironment(def buildfile.Definition, opt Options) environment {
	env := environment{
		image:        b.cfg.Docker.Image,
		workspaceDir: b.cfg.Docker.Workspace,
		retain:       b.cfg.Docker.Retain || opt.Retain,
	}
	if def.Image != "" {
		env.image = def.Image
	}
	if opt.Image != "" {
		env.image = opt.Image
	}
	if def.Workspace != "" {
		env.workspaceDir = def.Workspace
	}
	return env
}

func (b *Builder) loadProfiles(opt Options) (map[string]string, error) {
	if len(opt.Profiles) == 0 {
		return nil, nil
	}
	dir := filepath.Join(opt.ProjectDir, b.cfg.Build.ProfilesDir)
	env, err := profile.Load(dir, opt.Profiles)
	if err != nil {
		return nil, err
	}
	log.Debug().
		WithInt("profiles", len(opt.Profiles)).
		WithInt("vars", len(env)).
		Message("Loaded profile environments.")
	return env, nil
}

func (b *Builder) provision(ctx context.Context, mgr *buildcontainer.Manager, env environment, opt Options) (*buildcontainer.Container, error) {
	if err := mgr.Preflight(ctx); err != nil {
		return nil, err
	}
	ctr, err := mgr.Provision(ctx, buildcontainer.Options{
		Image:        env.image,
		WorkspaceDir: env.workspaceDir,
		ProjectDir:   opt.ProjectDir,
		ForceCold:    opt.ForceCold,
		BuildID:      opt.BuildID,
	})
	if err != nil {
		return nil, err
	}
	if err := b.syncWorkspace(ctx, mgr, ctr, opt); err != nil {
		teardownCtx, cancel := context.WithTimeout(
			context.Background(), teardownTimeout)
		defer cancel()
		mgr.Teardown(teardownCtx, ctr, false)
		return nil, err
	}
	return ctr, nil
}

func (b *Builder) syncWorkspace(ctx context.Context, mgr *buildcontainer.Manager, ctr *buildcontainer.Container, opt Options) error {
	stager, err := workspace.NewStager(opt.ProjectDir)
	if err != nil {
		return fmt.Errorf("stage workspace: %w", err)
	}
	defer stager.Close()
	ign := workspace.DefaultIgnorer(opt.ProjectDir)
	tarball, err := stager.PreparedTarball(filecopy.IOCopier, ign, fmt.Sprint(opt.BuildID))
	if err != nil {
		return fmt.Errorf("stage workspace: %w", err)
	}
	return mgr.SyncIn(ctx, ctr, tarball)
}

func (b *Builder) transferArtifacts(ctx context.Context, ctr *buildcontainer.Container, def buildfile.Definition, env environment, opt Options) {
	if len(def.Artifacts) == 0 {
		return
	}
	reg := artifact.NewRegistry(env.workspaceDir)
	for _, art := range def.Artifacts {
		if art.Zipped {
			reg.CopyZippedToHost(art.From, art.To)
		} else {
			reg.CopyToHost(art.From, art.To)
		}
	}
	transferer := artifact.Transferer{
		Host:          b.host,
		Container:     ctr.Executor(),
		ContainerName: ctr.Name(),
		ProjectDir:    opt.ProjectDir,
	}
	transferer.Transfer(ctx, reg.Entries())
}
