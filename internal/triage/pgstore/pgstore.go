// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/sift/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sift/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const triageColumns = `id, assessment_id, company_id, status, analysis, error, created_at, completed_at`

// Get retrieves a triage result by ID.
//
//nolint:dupl // similar structure to GetByAssessment is intentional
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE id = $1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// GetByAssessment retrieves the most recent triage result for an assessment.
//
//nolint:dupl // similar structure to Get is intentional
func (s *Store) GetByAssessment(ctx context.Context, assessmentID string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetByAssessment", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE assessment_id = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, assessmentID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Put inserts or updates a triage result (upsert on id).
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	var analysisJSON []byte
	if r.Analysis != nil {
		var err error
		analysisJSON, err = json.Marshal(r.Analysis)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}

	var completedAt *time.Time
	if !r.CompletedAt.IsZero() {
		completedAt = &r.CompletedAt
	}

	query := `INSERT INTO triage_runs (
		id, assessment_id, company_id, status, analysis, error, created_at, completed_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (id) DO UPDATE SET
		assessment_id = EXCLUDED.assessment_id,
		company_id    = EXCLUDED.company_id,
		status        = EXCLUDED.status,
		analysis      = EXCLUDED.analysis,
		error         = EXCLUDED.error,
		completed_at  = EXCLUDED.completed_at`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.AssessmentID, r.CompanyID, string(r.Status), analysisJSON, r.Error,
		r.CreatedAt, completedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage: %w", err)
	}
	return nil
}

// scanTriageRow scans a single row into a triage.Result.
// Returns (nil, nil) when no row is found.
func scanTriageRow(row pgx.Row) (*triage.Result, error) {
	var (
		r            triage.Result
		status       string
		analysisJSON []byte
		completedAt  *time.Time
	)

	err := row.Scan(
		&r.ID, &r.AssessmentID, &r.CompanyID, &status, &analysisJSON, &r.Error,
		&r.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.Status(status)

	if completedAt != nil {
		r.CompletedAt = *completedAt
	}

	if len(analysisJSON) > 0 {
		r.Analysis = &triage.Analysis{}
		if err := json.Unmarshal(analysisJSON, r.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
	}

	return &r, nil
}
