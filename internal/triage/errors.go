package triage

import "errors"

// ErrMalformedAssessment is returned when an assessment carries no domain
// responses at all. Raised to the caller before any scoring work.
var ErrMalformedAssessment = errors.New("malformed assessment: no domain responses")

// ErrInsufficientData is returned when every domain falls below the minimum
// completeness threshold. Raised to the caller before any scoring work.
var ErrInsufficientData = errors.New("insufficient data: no domain meets the completeness threshold")

// errSelectionInvariant flags an internal selector bug: fewer than the
// minimum critical domains available when at least that many were scored.
// It should never surface to callers.
var errSelectionInvariant = errors.New("selection invariant violated")
