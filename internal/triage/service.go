package triage

import (
	"context"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/oklog/ulid/v2"
)

// SubmitResult is the outcome of submitting an assessment for triage.
type SubmitResult struct {
	ID      string
	Skipped bool
	Reason  string
}

// Notifier delivers a completed triage result to an external channel.
type Notifier interface {
	Notify(ctx context.Context, result *Result) error
}

// Service is the business boundary for triage operations: dedup, lifecycle,
// async dispatch, audit events, and notification.
type Service struct {
	store    Store
	engine   *Engine
	auditor  Auditor
	notifier Notifier
	metrics  *Metrics
	logger   log.Logger
}

// NewService creates a new triage service. auditor, notifier and metrics may be nil.
func NewService(store Store, engine *Engine, auditor Auditor, notifier Notifier, metrics *Metrics, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		auditor:  auditor,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Submit accepts an assessment for triage. Runs are deduplicated per
// assessment: a pending or in-progress run is not restarted.
func (s *Service) Submit(ctx context.Context, a *assessment.Assessment) (*SubmitResult, error) {
	if a == nil || a.ID == "" {
		s.countSubmit("invalid")
		return nil, errors.New("assessment id is required")
	}

	if existing, ok, err := s.store.GetByAssessment(ctx, a.ID); err != nil {
		s.countSubmit("error")
		return nil, err
	} else if ok && (existing.Status == StatusPending || existing.Status == StatusInProgress) {
		s.countSubmit("duplicate")
		return &SubmitResult{ID: existing.ID, Skipped: true, Reason: "duplicate"}, nil
	}

	id := ulid.Make().String()
	result := &Result{
		ID:           id,
		AssessmentID: a.ID,
		CompanyID:    a.CompanyID,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}

	if err := s.store.Put(ctx, result); err != nil {
		s.countSubmit("error")
		return nil, err
	}

	s.countSubmit("accepted")

	// kick off async triage - pass only the ID to avoid sharing the Result pointer.
	go s.runTriage(context.WithoutCancel(ctx), id, a)

	return &SubmitResult{ID: id}, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

// GetByAssessment retrieves the latest triage result for an assessment.
func (s *Service) GetByAssessment(ctx context.Context, assessmentID string) (*Result, bool, error) {
	return s.store.GetByAssessment(ctx, assessmentID)
}

func (s *Service) runTriage(ctx context.Context, id string, a *assessment.Assessment) {
	L := s.logger.With("triage_id", id, "assessment_id", a.ID)

	result, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch result for triage")
		return
	}

	result.Status = StatusInProgress
	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to update status to in_progress")
		return
	}

	s.audit(ctx, &AuditEvent{
		Type:         EventTriageStarted,
		TriageID:     id,
		AssessmentID: a.ID,
	})

	analysis, runErr := s.engine.Run(ctx, a)

	result.CompletedAt = time.Now()

	switch {
	case runErr == nil:
		result.Status = StatusComplete
		result.Analysis = analysis
		s.audit(ctx, &AuditEvent{
			Type:         EventTriageCompleted,
			TriageID:     id,
			AssessmentID: a.ID,
			Model:        analysis.Metrics.Model,
			Duration:     analysis.Metrics.Duration,
			Confidence:   analysis.Confidence,
		})

	case errors.Is(runErr, ErrMalformedAssessment) || errors.Is(runErr, ErrInsufficientData):
		result.Status = StatusRejected
		result.Error = runErr.Error()
		s.audit(ctx, &AuditEvent{
			Type:         EventValidationFailed,
			TriageID:     id,
			AssessmentID: a.ID,
			Error:        runErr.Error(),
		})

	default:
		result.Status = StatusFailed
		result.Error = runErr.Error()
		s.audit(ctx, &AuditEvent{
			Type:         EventTriageFailed,
			TriageID:     id,
			AssessmentID: a.ID,
			Error:        runErr.Error(),
		})
	}

	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to persist triage result")
		return
	}

	if s.metrics != nil {
		s.metrics.TriagesTotal.WithLabelValues(string(result.Status)).Inc()
	}

	if s.notifier != nil && result.Status == StatusComplete {
		if err := s.notifier.Notify(ctx, result); err != nil {
			L.Warn(ctx, "notification failed", "error", err.Error())
		}
	}

	L.Info(ctx, "triage run finished", "status", result.Status)
}

func (s *Service) countSubmit(result string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) audit(ctx context.Context, ev *AuditEvent) {
	if s.auditor == nil {
		return
	}
	ev.Time = time.Now()
	s.auditor.Record(ctx, ev)
}
