package triage

import "github.com/linnemanlabs/sift/internal/industry"

// severityBand is one row of the classification table. Bands are evaluated
// in order; first match wins.
type severityBand struct {
	MinScore   float64
	Severity   Severity
	Priority   Priority
	Activation Activation
}

var severityBands = []severityBand{
	{MinScore: 4.5, Severity: SeverityCritical, Priority: PriorityCritical, Activation: ActivationRequired},
	{MinScore: 4.0, Severity: SeverityHigh, Priority: PriorityHigh, Activation: ActivationRequired},
	{MinScore: 3.5, Severity: SeverityMedium, Priority: PriorityModerate, Activation: ActivationConditional},
	{MinScore: 0, Severity: SeverityLow, Priority: PriorityHealthy, Activation: ActivationNotRequired},
}

// classify assigns the severity tier for a combined score.
func classify(score float64) severityBand {
	for _, band := range severityBands {
		if score >= band.MinScore {
			return band
		}
	}
	return severityBands[len(severityBands)-1]
}

// combine merges base and enriched scores into the final per-domain results:
// clamp(adjusted x industry multiplier) with enrichment confidence, or the
// fixed degraded confidence when the run is in fallback mode.
func combine(bases map[string]baseScore, enr *enrichment, ictx *industry.Context, params Params, completeness map[string]float64) map[string]*DomainScore {
	scores := make(map[string]*DomainScore, len(bases))

	for domain, base := range bases {
		de, ok := enr.Domains[domain]
		if !ok {
			// Parsed responses always cover every base domain; this arm only
			// runs for degraded enrichments built from a different base set.
			de = domainEnrichment{AdjustedScore: base.Score, Confidence: degradedConfidence, Reasoning: fallbackReasoning}
		}

		confidence := clampConfidence(de.Confidence)
		if base.FreeTextOnly && confidence > freeTextConfidenceCap {
			confidence = freeTextConfidenceCap
		}

		ds := &DomainScore{
			Domain:          domain,
			BaseScore:       base.Score,
			Score:           clamp(de.AdjustedScore * ictx.Multiplier(domain)),
			Confidence:      confidence,
			Reasoning:       de.Reasoning,
			CriticalFactors: de.CriticalFactors,
			Completeness:    completeness[domain],
		}
		applyClassification(ds, ictx, params)
		scores[domain] = ds
	}

	return scores
}

// applyClassification recomputes severity, priority, and agent activation
// for a domain's current score. Called again after impact propagation.
func applyClassification(ds *DomainScore, ictx *industry.Context, params Params) {
	band := classify(ds.Score)
	ds.Severity = band.Severity
	ds.PriorityLevel = band.Priority
	ds.AgentActivation = band.Activation

	// Low-confidence domains never force a deep-dive on their own.
	if ds.AgentActivation == ActivationRequired && ds.Confidence < params.MinConfidence {
		ds.AgentActivation = ActivationConditional
	}

	// Sector-mandated domains always get at least a conditional pass.
	if ictx.IsMandatory(ds.Domain) && ds.AgentActivation == ActivationNotRequired {
		ds.AgentActivation = ActivationConditional
	}
}
