package model

import (
	"context"
	"time"
)

// Operations reported to a Recorder.
const (
	OpSave    = "save"
	OpLoad    = "load"
	OpDestroy = "destroy"
	OpFind    = "find"
)

// Outcomes reported to a Recorder.
const (
	OutcomeWritten  = "written"
	OutcomeSkipped  = "skipped"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Recorder observes orchestrator operations. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Observe(ctx context.Context, op, docType, outcome string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, string, string, string, time.Duration) {}
