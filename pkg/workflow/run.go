package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
)

// Result is the outcome of running a workflow, with the overall status, the
// individual step results, and the duration of the entire run.
type Result struct {
	Status        Status
	Steps         []StepResult
	FailedStep    string // name of the first failing step, if any
	FailedContext string // context label of the first failing step, if any
	Duration      time.Duration
}

// StepResult is the outcome of a single step execution.
type StepResult struct {
	Name     string
	Context  string
	Status   Status
	Error    error
	Duration time.Duration
}

// Run drains the workflow in registration order. Each step's action is
// awaited; the first step to fail aborts the run immediately and no further
// steps execute.
func (w *Workflow) Run(ctx context.Context) Result {
	start := time.Now()
	var result Result
	stepCount := len(w.steps)
	if stepCount == 0 {
		log.Warn().
			WithString("steps", "0/0").
			Message("No steps to run.")
		result.Status = StatusNone
		return result
	}
	for i, step := range w.steps {
		i, step := i, step
		logFunc := func(ev logger.Event) logger.Event {
			ev = ev.
				WithStringf("steps", "%d/%d", i+1, stepCount).
				WithString("step", step.Name)
			if step.Context != "" {
				ev = ev.WithString("context", step.Context)
			}
			return ev
		}
		log.Info().WithFunc(logFunc).Message("Starting step.")
		stepStart := time.Now()
		status, err := runStep(ctx, step)
		stepResult := StepResult{
			Name:     step.Name,
			Context:  step.Context,
			Status:   status,
			Error:    err,
			Duration: time.Since(stepStart),
		}
		result.Steps = append(result.Steps, stepResult)
		dur := stepResult.Duration.Truncate(time.Second)
		if status == StatusCancelled {
			log.Info().
				WithFunc(logFunc).
				WithDuration("dur", dur).
				Message("Cancelled step.")
			result.Status = StatusCancelled
			result.FailedStep = step.Name
			result.FailedContext = step.Context
			break
		}
		if status != StatusSuccess {
			log.Warn().
				WithError(err).
				WithFunc(logFunc).
				WithDuration("dur", dur).
				Message("Failed step. Skipping any further steps.")
			result.Status = StatusFailed
			result.FailedStep = step.Name
			result.FailedContext = step.Context
			break
		}
		log.Info().
			WithFunc(logFunc).
			WithDuration("dur", dur).
			Message("Done with step.")
		result.Status = StatusSuccess
	}
	result.Duration = time.Since(start)
	return result
}

func runStep(ctx context.Context, step Step) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusCancelled, err
	}
	ok, err := step.Action(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return StatusCancelled, err
	}
	if err != nil {
		return StatusFailed, err
	}
	if !ok {
		return StatusFailed, nil
	}
	return StatusSuccess, nil
}
