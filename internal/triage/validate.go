package triage

import (
	"sort"

	"github.com/linnemanlabs/sift/internal/assessment"
)

// validateAssessment checks shape and completeness before any scoring work
// begins, so unusable input never reaches the enrichment client. It returns
// the scoreable domain ids in stable order.
//
// An assessment with no domain responses at all is malformed. An assessment
// where every domain falls below the completeness threshold has insufficient
// data. Both are rejected with no partial result.
func validateAssessment(a *assessment.Assessment, minCompleteness float64) ([]string, error) {
	if a == nil || len(a.DomainResponses) == 0 {
		return nil, ErrMalformedAssessment
	}

	var scoreable []string
	for domain, dr := range a.DomainResponses {
		if dr == nil || len(dr.Answers) == 0 {
			continue
		}
		if dr.Completeness() >= minCompleteness {
			scoreable = append(scoreable, domain)
		}
	}

	if len(scoreable) == 0 {
		return nil, ErrInsufficientData
	}

	sort.Strings(scoreable)
	return scoreable, nil
}
