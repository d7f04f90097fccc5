// Package workflow holds the ordered list of named, deferred steps composing
// one build, and runs them sequentially with fail-fast semantics.
//
// Steps run in registration order, exactly once each, and never in parallel
// within one workflow. Builds are naturally a strict pipeline (restore,
// build, test, publish, deploy), so step-level parallelism is traded away
// for predictable failure semantics and straightforward log ordering.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
)

var log = logger.NewScoped("WORKFLOW")

// Action is the deferred body of a step. It reports false, or an error, to
// fail the step and thereby abort the workflow.
type Action func(ctx context.Context) (bool, error)

// Step is a named, deferred unit of work with a boolean success result.
type Step struct {
	Name    string
	Context string // optional label shown in logs and failure diagnostics
	Action  Action
}

// Workflow is the ordered sequence of steps for one build. It is created
// empty, populated during build script evaluation, drained exactly once by
// Run, and discarded after.
type Workflow struct {
	// ExecutorFactory supplies the active executor for command steps. It is
	// re-evaluated every time a step runs.
	ExecutorFactory commandexec.Resolver

	steps []Step
}

// New returns an empty workflow whose command steps resolve their executor
// through the given resolver.
func New(resolver commandexec.Resolver) *Workflow {
	return &Workflow{ExecutorFactory: resolver}
}

// Register appends a named step. The action is not executed at registration
// time; the registration order is the execution order.
func (w *Workflow) Register(name string, action Action, context ...string) {
	step := Step{
		Name:   name,
		Action: action,
	}
	if len(context) > 0 {
		step.Context = context[0]
	}
	w.steps = append(w.steps, step)
}

// CommandStep describes a step that executes a single command through the
// workflow's executor resolver.
type CommandStep struct {
	Name    string
	Context string
	Command string
	// Args produces the command's arguments. The factory is evaluated when
	// the step runs, not when it is registered, so it may resolve values
	// produced by earlier steps.
	Args        argbuilder.Factory
	WorkDir     string
	Env         map[string]string
	Timeout     time.Duration
	Interactive bool
	// Executor overrides the workflow's resolver for this step. Used by
	// operations whose credentials are host-resident, such as version
	// control pushes or registry logins.
	Executor commandexec.Resolver
}

// RegisterCommand appends a step that resolves the active executor,
// evaluates the argument factory, and executes the command when the step
// runs.
func (w *Workflow) RegisterCommand(step CommandStep) {
	w.Register(step.Name, func(ctx context.Context) (bool, error) {
		resolver := step.Executor
		if resolver == nil {
			resolver = w.ExecutorFactory
		}
		executor := resolver()
		var args []string
		if step.Args != nil {
			args = step.Args().Args()
		}
		res := executor.Exec(ctx, step.Command, args, commandexec.Options{
			WorkDir:     step.WorkDir,
			Env:         step.Env,
			Timeout:     step.Timeout,
			Interactive: step.Interactive,
		})
		if !res.Success {
			return false, fmt.Errorf("command %q exited with code %d", step.Command, res.ExitCode)
		}
		return true, nil
	}, step.Context)
}

// Steps returns the registered steps in registration order.
func (w *Workflow) Steps() []Step {
	return w.steps
}

// Len returns the number of registered steps.
func (w *Workflow) Len() int {
	return len(w.steps)
}
