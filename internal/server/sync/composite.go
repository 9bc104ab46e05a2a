package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/famhub/famhub/internal/logging"
)

// defaultStepTimeout bounds each forward/backward call so a hung store call
// cannot wedge the owning request past the outer transport timeout.
const defaultStepTimeout = 30 * time.Second

// Step is one unit of a composite operation: a forward action plus an
// optional compensating action. Backward receives whatever Forward returned
// so it can undo precisely what was created.
type Step struct {
	Type     string
	Forward  func(ctx context.Context) (any, error)
	Backward func(ctx context.Context, result any) error // nil: nothing to undo
}

// StepResult pairs a completed step with its forward result.
type StepResult struct {
	Type   string
	Result any
}

// CompositeResult reports the outcome of Execute. Completed lists the steps
// whose Forward succeeded, in execution order, even when the operation as a
// whole failed and those steps were compensated.
type CompositeResult struct {
	OK        bool
	Completed []StepResult
	Err       error
}

// Composite runs an ordered list of steps with saga-style best-effort
// compensation: on the first forward error, Backward is invoked for every
// completed step in reverse completion order. The calendar/password/document
// tables and the domain tables are independently-owned resources, so there
// is no database-level distributed transaction to lean on.
type Composite struct {
	steps       []Step
	logger      logging.Logger
	stepTimeout time.Duration
}

func NewComposite(logger logging.Logger) *Composite {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Composite{logger: logger, stepTimeout: defaultStepTimeout}
}

// WithStepTimeout overrides the per-step deadline.
func (c *Composite) WithStepTimeout(d time.Duration) *Composite {
	c.stepTimeout = d
	return c
}

// Add appends a step. Steps execute strictly in registration order.
func (c *Composite) Add(step Step) *Composite {
	c.steps = append(c.steps, step)
	return c
}

// Execute runs each Forward in sequence. On the first error it rolls back
// the completed steps and returns an unsuccessful result carrying the
// results gathered so far. A step whose Forward never completed is never
// rolled back.
func (c *Composite) Execute(ctx context.Context) CompositeResult {
	completed := make([]StepResult, 0, len(c.steps))
	completedSteps := make([]Step, 0, len(c.steps))

	for _, step := range c.steps {
		result, err := c.runForward(ctx, step)
		if err != nil {
			c.logger.Warn(ctx, "composite step failed, rolling back",
				"step", step.Type, "completed", len(completed), "error", err.Error())
			c.rollback(ctx, completedSteps, completed)
			return CompositeResult{Completed: completed, Err: fmt.Errorf("step %s: %w", step.Type, err)}
		}
		completed = append(completed, StepResult{Type: step.Type, Result: result})
		completedSteps = append(completedSteps, step)
	}

	return CompositeResult{OK: true, Completed: completed}
}

func (c *Composite) runForward(ctx context.Context, step Step) (any, error) {
	sctx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()
	return step.Forward(sctx)
}

// rollback compensates completed steps in reverse order. Individual rollback
// errors are logged and swallowed so one failed compensating action does not
// prevent the others from running.
func (c *Composite) rollback(ctx context.Context, steps []Step, results []StepResult) {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Backward == nil {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, c.stepTimeout)
		if err := steps[i].Backward(sctx, results[i].Result); err != nil {
			c.logger.Error(ctx, "composite rollback step failed",
				"step", steps[i].Type, "error", err.Error())
		}
		cancel()
	}
}
