// Package sagalog is the durable audit trail of workflow executions.
//
// Each workflow run (a payment attempt against one order) writes one row per
// transition. Rows carry the trace and span ids of the active span so an
// entry can be correlated with the request trace.
package sagalog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is one append-only row of the workflow log.
type Entry struct {
	// SagaID identifies one workflow run, e.g. "payment:42:<uuid>".
	SagaID      string
	Status      Status
	CurrentStep string
	// Payload is the JSON input of the run, written on STARTED only.
	Payload string
	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string
	TraceID       string
	SpanID        string
	UpdatedAt     time.Time
}

// Errors decodes ErrorMessages.
func (e *Entry) Errors() []string {
	var out []string
	if err := json.Unmarshal([]byte(e.ErrorMessages), &out); err != nil {
		return nil
	}
	return out
}

type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

type Reader interface {
	GetLatest(ctx context.Context, sagaID string) (*Entry, error)
	History(ctx context.Context, sagaID string) ([]Entry, error)
	SagasByPrefix(ctx context.Context, prefix string) ([]string, error)
}

type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the ids of the span active in ctx, or empty
// strings when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds a log row with trace info taken from ctx.
//
//	entry := sagalog.NewEntry(ctx, sagaID, sagalog.StatusStepDone, "charge", "", nil)
func NewEntry(ctx context.Context, sagaID string, status Status, currentStep, payload string, errs []string) *Entry {
	ti := ExtractTraceInfo(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Entry{
		SagaID:        sagaID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     time.Now().UTC(),
	}
}
