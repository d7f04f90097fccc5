package build

import (
	"context"
	"fmt"
	"path"
	"regexp"

	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
	"github.com/slipway-ci/slipway-cmd/pkg/buildcontainer"
	"github.com/slipway-ci/slipway-cmd/pkg/buildfile"
	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
	"github.com/slipway-ci/slipway-cmd/pkg/deferred"
	"github.com/slipway-ci/slipway-cmd/pkg/nestedbuild"
	"github.com/slipway-ci/slipway-cmd/pkg/workflow"
)

func (b *Builder) newWorkflow(ctr *buildcontainer.Container, def buildfile.Definition, env environment, profileEnv map[string]string, outputs *deferred.Outputs, opt Options) *workflow.Workflow {
	resolver := commandexec.Static(b.host)
	if ctr != nil {
		resolver = func() commandexec.Executor {
			return ctr.Executor()
		}
	}
	wf := workflow.New(resolver)
	for _, step := range def.Steps {
		b.registerStep(wf, step, env, profileEnv, outputs, opt)
	}
	b.registerNestedBuilds(wf, def, opt)
	return wf
}

func (b *Builder) registerStep(wf *workflow.Workflow, step buildfile.Step, env environment, profileEnv map[string]string, outputs *deferred.Outputs, opt Options) {
	timeout := step.Timeout.Std()
	if timeout == 0 {
		timeout = b.cfg.Build.Timeout
	}
	cmdStep := workflow.CommandStep{
		Name:        step.Name,
		Context:     step.Context,
		Command:     step.Command,
		Args:        deferredArgs(step.Args, outputs),
		Env:         mergeEnv(profileEnv, step.Env, opt.ExtraEnv),
		Timeout:     timeout,
		Interactive: step.Interactive,
	}
	if step.Host {
		cmdStep.Executor = commandexec.Static(b.host)
	}
	if step.Host || opt.NoDocker {
		cmdStep.WorkDir = hostWorkDir(opt.ProjectDir, step.WorkDir)
	} else {
		cmdStep.WorkDir = containerWorkDir(env.workspaceDir, step.WorkDir)
	}
	wf.RegisterCommand(cmdStep)
}

func (b *Builder) registerNestedBuilds(wf *workflow.Workflow, def buildfile.Definition, opt Options) {
	if len(def.Builds) == 0 {
		return
	}
	spawner, err := nestedbuild.NewSpawner(opt.Depth)
	if err != nil {
		// Fails inside the step so the failure shows up in the results.
		wf.Register("nested builds", func(context.Context) (bool, error) {
			return false, err
		})
		return
	}
	for _, nested := range def.Builds {
		nested := nested
		nestedOpt := nestedbuild.Options{
			Path:      path.Join(opt.ProjectDir, nested.Path),
			Profiles:  opt.Profiles,
			ForceCold: nested.Cold || opt.ForceCold,
			NoDocker:  nested.NoDocker || opt.NoDocker,
			Image:     nested.Image,
			LogLevel:  opt.LogLevel,
		}
		if len(nested.Profiles) > 0 {
			nestedOpt.Profiles = nested.Profiles
		}
		wf.Register(fmt.Sprintf("build %s", nested.Path),
			func(ctx context.Context) (bool, error) {
				if err := spawner.Run(ctx, nestedOpt); err != nil {
					return false, err
				}
				return true, nil
			}, "nested")
	}
}

var outputRefPattern = regexp.MustCompile(`\$\{out:([^}]+)\}`)

// deferredArgs returns a factory that expands ${out:name} references in the
// step's arguments. Expansion happens when the step runs, so references to
// values produced during provisioning or by earlier steps resolve correctly.
// An absent reference expands to the empty string with a warning, as it
// usually means the steps are ordered wrong.
func deferredArgs(args []string, outputs *deferred.Outputs) argbuilder.Factory {
	return func() *argbuilder.Builder {
		builder := argbuilder.New()
		for _, arg := range args {
			builder.Add(outputRefPattern.ReplaceAllStringFunc(arg, func(match string) string {
				name := outputRefPattern.FindStringSubmatch(match)[1]
				value, ok := outputs.Ref(name).Resolve()
				if !ok {
					log.Warn().
						WithString("ref", name).
						Message("Output reference has no value yet.")
				}
				return value
			}))
		}
		return builder
	}
}

// mergeEnv merges step environments with precedence extra over step over
// profile.
func mergeEnv(profileEnv, stepEnv, extraEnv map[string]string) map[string]string {
	if len(profileEnv) == 0 && len(stepEnv) == 0 && len(extraEnv) == 0 {
		return nil
	}
	merged := make(map[string]string, len(profileEnv)+len(stepEnv)+len(extraEnv))
	for k, v := range profileEnv {
		merged[k] = v
	}
	for k, v := range stepEnv {
		merged[k] = v
	}
	for k, v := range extraEnv {
		merged[k] = v
	}
	return merged
}

// containerWorkDir resolves a step's working directory inside the container.
// Container paths always use forward slashes, even on Windows hosts.
func containerWorkDir(workspaceDir, workDir string) string {
	if workDir == "" {
		return workspaceDir
	}
	if path.IsAbs(workDir) {
		return path.Clean(workDir)
	}
	return path.Join(workspaceDir, workDir)
}

// hostWorkDir resolves a host step's working directory against the project.
func hostWorkDir(projectDir, workDir string) string {
	if workDir == "" {
		return projectDir
	}
	if path.IsAbs(workDir) {
		return workDir
	}
	return path.Join(projectDir, workDir)
}
