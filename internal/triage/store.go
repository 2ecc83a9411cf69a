package triage

import "context"

// Store is the persistence interface for triage results.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	GetByAssessment(ctx context.Context, assessmentID string) (*Result, bool, error)
	Put(ctx context.Context, result *Result) error
}
