package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slipway-ci/slipway-cmd/pkg/argbuilder"
	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolAction(executed *[]string, name string, ok bool) Action {
	return func(context.Context) (bool, error) {
		*executed = append(*executed, name)
		return ok, nil
	}
}

func TestWorkflow_runsInRegistrationOrder(t *testing.T) {
	var executed []string
	w := New(nil)
	w.Register("foo", boolAction(&executed, "foo", true))
	w.Register("bar", boolAction(&executed, "bar", true))
	w.Register("moo", boolAction(&executed, "moo", true))

	result := w.Run(context.Background())
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"foo", "bar", "moo"}, executed)
	require.Len(t, result.Steps, 3)
	for _, step := range result.Steps {
		assert.Equal(t, StatusSuccess, step.Status, step.Name)
	}
}

func TestWorkflow_failFastSkipsLaterSteps(t *testing.T) {
	var executed []string
	w := New(nil)
	w.Register("A", boolAction(&executed, "A", true))
	w.Register("B", boolAction(&executed, "B", false))
	w.Register("C", boolAction(&executed, "C", true))

	result := w.Run(context.Background())
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, []string{"A", "B"}, executed)
	assert.Equal(t, "B", result.FailedStep)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, StatusFailed, result.Steps[1].Status)
}

func TestWorkflow_errorAbortsWithDiagnostics(t *testing.T) {
	wantErr := errors.New("deploy exploded")
	w := New(nil)
	w.Register("deploy", func(context.Context) (bool, error) {
		return false, wantErr
	}, "infra/prod")

	result := w.Run(context.Background())
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "deploy", result.FailedStep)
	assert.Equal(t, "infra/prod", result.FailedContext)
	require.Len(t, result.Steps, 1)
	assert.ErrorIs(t, result.Steps[0].Error, wantErr)
}

func TestWorkflow_emptyRunsNone(t *testing.T) {
	w := New(nil)
	result := w.Run(context.Background())
	assert.Equal(t, StatusNone, result.Status)
	assert.Empty(t, result.Steps)
}

func TestWorkflow_noActionRunsAtRegistration(t *testing.T) {
	var executed []string
	w := New(nil)
	w.Register("foo", boolAction(&executed, "foo", true))
	assert.Empty(t, executed)
	assert.Equal(t, 1, w.Len())
}

func TestWorkflow_cancelledContext(t *testing.T) {
	var executed []string
	ctx, cancel := context.WithCancel(context.Background())
	w := New(nil)
	w.Register("first", func(context.Context) (bool, error) {
		executed = append(executed, "first")
		cancel()
		return true, nil
	})
	w.Register("second", boolAction(&executed, "second", true))

	result := w.Run(ctx)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, []string{"first"}, executed)
}

type execCall struct {
	command string
	args    []string
	opt     commandexec.Options
}

type mockExecutor struct {
	name   string
	calls  []execCall
	result commandexec.Result
}

func (m *mockExecutor) Exec(_ context.Context, command string, args []string, opt commandexec.Options) commandexec.Result {
	m.calls = append(m.calls, execCall{command, args, opt})
	return m.result
}

func TestRegisterCommand_resolvesExecutorAtRunTime(t *testing.T) {
	first := &mockExecutor{name: "first", result: commandexec.Result{Success: true}}
	second := &mockExecutor{name: "second", result: commandexec.Result{Success: true}}

	// The active executor switches after registration, before the run.
	active := commandexec.Executor(first)
	w := New(func() commandexec.Executor { return active })
	w.RegisterCommand(CommandStep{
		Name:    "restore",
		Command: "dotnet",
		Args:    argbuilder.Fixed("restore"),
	})
	active = second

	result := w.Run(context.Background())
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, first.calls)
	require.Len(t, second.calls, 1)
	assert.Equal(t, "dotnet", second.calls[0].command)
}

func TestRegisterCommand_argsFactoryEvaluatedAtRunTime(t *testing.T) {
	mock := &mockExecutor{result: commandexec.Result{Success: true}}
	w := New(commandexec.Static(mock))

	// Simulates a credential produced by an earlier step's interactive
	// prompt: at registration time it is still empty.
	var token string
	w.Register("login", func(context.Context) (bool, error) {
		token = "s3cr3t"
		return true, nil
	})
	w.RegisterCommand(CommandStep{
		Name:    "push",
		Command: "registry",
		Args: func() *argbuilder.Builder {
			return argbuilder.New("push").AddNonEmpty("--token", token)
		},
	})

	result := w.Run(context.Background())
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, mock.calls, 1)
	assert.Equal(t, []string{"push", "--token", "s3cr3t"}, mock.calls[0].args)
}

func TestRegisterCommand_executorOverride(t *testing.T) {
	container := &mockExecutor{result: commandexec.Result{Success: true}}
	host := &mockExecutor{result: commandexec.Result{Success: true}}

	w := New(commandexec.Static(container))
	w.RegisterCommand(CommandStep{
		Name:    "build",
		Command: "go",
		Args:    argbuilder.Fixed("build"),
	})
	w.RegisterCommand(CommandStep{
		Name:     "tag",
		Command:  "git",
		Args:     argbuilder.Fixed("tag", "v1.0.0"),
		Executor: commandexec.Static(host),
	})

	result := w.Run(context.Background())
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, container.calls, 1)
	assert.Len(t, host.calls, 1)
}

func TestRegisterCommand_failedCommandFailsStep(t *testing.T) {
	mock := &mockExecutor{result: commandexec.Result{Success: false, ExitCode: 2}}
	w := New(commandexec.Static(mock))
	w.RegisterCommand(CommandStep{
		Name:    "test",
		Command: "go",
		Args:    argbuilder.Fixed("test", "./..."),
		Timeout: time.Minute,
	})

	result := w.Run(context.Background())
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "test", result.FailedStep)
	require.Len(t, result.Steps, 1)
	assert.ErrorContains(t, result.Steps[0].Error, "exited with code 2")
}
