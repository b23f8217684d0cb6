package saga

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func step(id StepID, trace *[]string, failExec bool) Step {
	return FuncStep{
		StepID: id,
		ExecuteFn: func(context.Context) error {
			*trace = append(*trace, "exec:"+string(id))
			if failExec {
				return errors.New("boom")
			}
			return nil
		},
		RollbackFn: func(context.Context) error {
			*trace = append(*trace, "undo:"+string(id))
			return nil
		},
	}
}

func TestRunCompletesAllSteps(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var trace []string

	err := r.Run(context.Background(), "startup", []Step{
		step("a", &trace, false),
		step("b", &trace, false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"exec:a", "exec:b"}
	if len(trace) != len(want) {
		t.Fatalf("unexpected trace %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %s, want %s", i, trace[i], want[i])
		}
	}

	report, ok := r.LastReport("startup")
	if !ok || report.State != RunStateCompleted {
		t.Errorf("expected completed report, got %+v", report)
	}
	if len(report.Completed) != 2 {
		t.Errorf("expected 2 completed steps, got %v", report.Completed)
	}
}

func TestRunCompensatesInReverseOrder(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var trace []string

	err := r.Run(context.Background(), "startup", []Step{
		step("a", &trace, false),
		step("b", &trace, false),
		step("c", &trace, true),
	})
	if err == nil {
		t.Fatal("expected the step error")
	}

	want := []string{"exec:a", "exec:b", "exec:c", "undo:b", "undo:a"}
	if len(trace) != len(want) {
		t.Fatalf("unexpected trace %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %s, want %s", i, trace[i], want[i])
		}
	}

	report, _ := r.LastReport("startup")
	if report.State != RunStateCompensated || report.FailedStep != "c" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestNilRollbackIsANoOp(t *testing.T) {
	r := NewRunner(zap.NewNop())
	executed := false

	err := r.Run(context.Background(), "startup", []Step{
		FuncStep{StepID: "a", ExecuteFn: func(context.Context) error { executed = true; return nil }},
		FuncStep{StepID: "b", ExecuteFn: func(context.Context) error { return errors.New("boom") }},
	})
	if err == nil {
		t.Fatal("expected the step error")
	}
	if !executed {
		t.Error("first step should have executed")
	}
}
