// Package saga runs short sequences of side-effecting steps with reverse
// compensation: when a step fails, every step that already completed is
// rolled back in reverse order. Bringing a story session up touches
// three devices (live connection, speaker, microphone); a partial
// startup must not leave any of them dangling.
package saga

import (
	"context"
	"time"
)

// StepID uniquely identifies a step within a run
type StepID string

// Step represents a single step in a saga
type Step interface {
	ID() StepID
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// FuncStep builds a Step from closures. Compensation may be nil for
// steps with nothing to undo.
type FuncStep struct {
	StepID     StepID
	ExecuteFn  func(ctx context.Context) error
	RollbackFn func(ctx context.Context) error
}

func (s FuncStep) ID() StepID { return s.StepID }

func (s FuncStep) Execute(ctx context.Context) error {
	return s.ExecuteFn(ctx)
}

func (s FuncStep) Compensate(ctx context.Context) error {
	if s.RollbackFn == nil {
		return nil
	}
	return s.RollbackFn(ctx)
}

// RunState represents the outcome of a saga run
type RunState string

const (
	RunStateCompleted   RunState = "completed"
	RunStateCompensated RunState = "compensated"
)

// RunReport records what a finished run did, for logging and health
// reporting.
type RunReport struct {
	Name       string        `json:"name"`
	State      RunState      `json:"state"`
	Completed  []StepID      `json:"completed"`
	FailedStep StepID        `json:"failed_step,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
