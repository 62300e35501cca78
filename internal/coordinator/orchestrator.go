// Package coordinator runs multi-step workflows whose completed steps are
// compensated in reverse order when a later step fails.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog"
)

// Step is a single unit of work with an action that undoes it.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator executes a fixed list of steps for one workflow run.
type Orchestrator struct {
	sagaID  string
	payload string
	steps   []Step
	log     sagalog.Repository
}

// NewOrchestrator builds a run. log may be nil, in which case transitions
// are not persisted.
func NewOrchestrator(sagaID string, steps []Step, log sagalog.Repository) *Orchestrator {
	return &Orchestrator{sagaID: sagaID, steps: steps, log: log}
}

// WithPayload records the JSON input of the run on the STARTED entry.
func (o *Orchestrator) WithPayload(payload string) *Orchestrator {
	o.payload = payload
	return o
}

// Start runs the steps in order. On the first failure every step that
// already succeeded is compensated, newest first, and the step error is
// returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "step failed, compensating", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs := []string{fmt.Sprintf("%s: %v", step.Name(), err)}
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", errs)
			errs = append(errs, o.rollback(ctx, done)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)
			return err
		}
		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.DebugContext(ctx, "workflow completed", "saga_id", o.sagaID)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s: %v", step.Name(), err))
		}
	}
	return errs
}

// record never fails the workflow; a log outage is only reported.
func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "workflow log write failed", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
