package saga

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes sagas sequentially and remembers the last report per
// saga name.
type Runner struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	reports map[string]RunReport
}

// NewRunner creates a new saga runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		logger:  logger,
		reports: make(map[string]RunReport),
	}
}

// Run executes the steps in order. On the first failure it compensates
// the already-completed steps in reverse order and returns the step's
// error. Compensation failures are logged, not returned; the original
// failure is the one the caller needs.
func (r *Runner) Run(ctx context.Context, name string, steps []Step) error {
	started := time.Now()
	report := RunReport{
		Name:      name,
		StartedAt: started,
	}

	var failedErr error
	for _, step := range steps {
		r.logger.Debug("Executing step",
			zap.String("saga", name),
			zap.String("step", string(step.ID())))

		if err := step.Execute(ctx); err != nil {
			r.logger.Error("Step failed",
				zap.String("saga", name),
				zap.String("step", string(step.ID())),
				zap.Error(err))
			report.FailedStep = step.ID()
			report.Error = err.Error()
			failedErr = fmt.Errorf("step %s: %w", step.ID(), err)
			break
		}
		report.Completed = append(report.Completed, step.ID())
	}

	if failedErr != nil {
		r.compensate(ctx, name, steps, report.Completed)
		report.State = RunStateCompensated
	} else {
		report.State = RunStateCompleted
	}
	report.Duration = time.Since(started)

	r.mu.Lock()
	r.reports[name] = report
	r.mu.Unlock()

	r.logger.Info("Saga finished",
		zap.String("saga", name),
		zap.String("state", string(report.State)),
		zap.Duration("duration", report.Duration))
	return failedErr
}

// compensate rolls back completed steps in reverse order
func (r *Runner) compensate(ctx context.Context, name string, steps []Step, completed []StepID) {
	done := make(map[StepID]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if !done[step.ID()] {
			continue
		}
		r.logger.Info("Compensating step",
			zap.String("saga", name),
			zap.String("step", string(step.ID())))
		if err := step.Compensate(ctx); err != nil {
			r.logger.Error("Compensation failed",
				zap.String("saga", name),
				zap.String("step", string(step.ID())),
				zap.Error(err))
		}
	}
}

// LastReport returns the report of the most recent run with this name.
func (r *Runner) LastReport(name string) (RunReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[name]
	return report, ok
}
