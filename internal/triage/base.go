package triage

import "github.com/linnemanlabs/sift/internal/assessment"

const (
	scoreMin = 1.0
	scoreMax = 5.0

	// neutralScore is used when a domain has only free-text answers.
	neutralScore = 3.0

	// freeTextConfidenceCap bounds confidence for free-text-only domains.
	freeTextConfidenceCap = 0.3
)

// baseScore is the deterministic pre-enrichment score for one domain.
type baseScore struct {
	Domain string
	Score  float64

	// FreeTextOnly marks a domain scored at the neutral default because it
	// had zero numeric answers.
	FreeTextOnly bool
}

// calculateBase converts a domain's raw answers into a 1-5 score: the
// arithmetic mean of answered numeric values, with null answers excluded
// from both numerator and denominator. A domain with zero numeric answers is
// excluded unless free-text follow-ups exist, in which case it defaults to
// the neutral score. Returns ok=false when the domain cannot be scored.
func calculateBase(domain string, dr *assessment.DomainResponse) (baseScore, bool) {
	vals := dr.NumericValues()
	if len(vals) == 0 {
		if dr.FreeTextCount() == 0 {
			return baseScore{}, false
		}
		return baseScore{Domain: domain, Score: neutralScore, FreeTextOnly: true}, true
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	return baseScore{Domain: domain, Score: clamp(sum / float64(len(vals)))}, true
}

func clamp(v float64) float64 {
	if v < scoreMin {
		return scoreMin
	}
	if v > scoreMax {
		return scoreMax
	}
	return v
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
