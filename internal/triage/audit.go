package triage

import (
	"context"
	"time"
)

// Audit event types emitted over a triage run's lifecycle.
const (
	EventTriageStarted    = "triage_started"
	EventTriageCompleted  = "triage_completed"
	EventTriageFailed     = "triage_failed"
	EventValidationFailed = "validation_failed"
)

// AuditEvent is the structured record external collaborators persist for
// compliance review of triage decisions.
type AuditEvent struct {
	Type         string    `json:"type"`
	TriageID     string    `json:"triage_id"`
	AssessmentID string    `json:"assessment_id"`
	Model        string    `json:"model,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`
	Error        string    `json:"error,omitempty"`
	Time         time.Time `json:"time"`
}

// Auditor records triage lifecycle events. Implementations must not block
// the pipeline; failures to record are the auditor's problem.
type Auditor interface {
	Record(ctx context.Context, ev *AuditEvent)
}

// AuditorFunc adapts a function to the Auditor interface.
type AuditorFunc func(ctx context.Context, ev *AuditEvent)

// Record implements Auditor.
func (f AuditorFunc) Record(ctx context.Context, ev *AuditEvent) { f(ctx, ev) }
