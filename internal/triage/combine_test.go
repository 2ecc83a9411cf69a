package triage

import (
	"testing"

	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/linnemanlabs/sift/internal/industry"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  severityBand
	}{
		{5.0, severityBands[0]},
		{4.5, severityBands[0]},
		{4.49, severityBands[1]},
		{4.0, severityBands[1]},
		{3.99, severityBands[2]},
		{3.5, severityBands[2]},
		{3.49, severityBands[3]},
		{1.0, severityBands[3]},
	}
	for _, tt := range tests {
		got := classify(tt.score)
		if got.Severity != tt.want.Severity {
			t.Errorf("classify(%v).Severity = %q, want %q", tt.score, got.Severity, tt.want.Severity)
		}
		if got.Activation != tt.want.Activation {
			t.Errorf("classify(%v).Activation = %q, want %q", tt.score, got.Activation, tt.want.Activation)
		}
	}
}

func TestCombine_AppliesMultiplierAndClamps(t *testing.T) {
	t.Parallel()

	bases := map[string]baseScore{
		assessment.DomainRiskCompliance: {Domain: assessment.DomainRiskCompliance, Score: 4.0},
		assessment.DomainRevenueEngine:  {Domain: assessment.DomainRevenueEngine, Score: 3.0},
	}
	enr := &enrichment{
		Domains: map[string]domainEnrichment{
			assessment.DomainRiskCompliance: {AdjustedScore: 4.5, Confidence: 0.8, Reasoning: "controls thin"},
			assessment.DomainRevenueEngine:  {AdjustedScore: 3.2, Confidence: 0.7, Reasoning: "pipeline ok"},
		},
	}
	ictx := &industry.Context{
		Sector: "fintech",
		Multipliers: map[string]float64{
			assessment.DomainRiskCompliance: 1.4,
		},
	}
	completeness := map[string]float64{
		assessment.DomainRiskCompliance: 100,
		assessment.DomainRevenueEngine:  80,
	}

	scores := combine(bases, enr, ictx, DefaultParams(), completeness)

	rc := scores[assessment.DomainRiskCompliance]
	if rc.Score != 5.0 {
		t.Errorf("risk-compliance score = %v, want clamped 5.0 (4.5 x 1.4)", rc.Score)
	}
	if rc.BaseScore != 4.0 {
		t.Errorf("risk-compliance base = %v, want 4.0", rc.BaseScore)
	}
	if rc.Severity != SeverityCritical || rc.AgentActivation != ActivationRequired {
		t.Errorf("risk-compliance = %s/%s, want critical/REQUIRED", rc.Severity, rc.AgentActivation)
	}
	if rc.Completeness != 100 {
		t.Errorf("risk-compliance completeness = %v, want 100", rc.Completeness)
	}

	re := scores[assessment.DomainRevenueEngine]
	if !almostEqual(re.Score, 3.2) {
		t.Errorf("revenue-engine score = %v, want 3.2 (identity multiplier)", re.Score)
	}
	if re.Reasoning != "pipeline ok" {
		t.Errorf("revenue-engine reasoning = %q", re.Reasoning)
	}
}

func TestCombine_FreeTextConfidenceCap(t *testing.T) {
	t.Parallel()

	bases := map[string]baseScore{
		assessment.DomainChangeManagement: {
			Domain:       assessment.DomainChangeManagement,
			Score:        3.0,
			FreeTextOnly: true,
		},
	}
	enr := &enrichment{
		Domains: map[string]domainEnrichment{
			assessment.DomainChangeManagement: {AdjustedScore: 3.5, Confidence: 0.9},
		},
	}

	scores := combine(bases, enr, &industry.Context{}, DefaultParams(), nil)

	cm := scores[assessment.DomainChangeManagement]
	if cm.Confidence != 0.3 {
		t.Errorf("confidence = %v, want capped at 0.3 for free-text-only domain", cm.Confidence)
	}
}

func TestApplyClassification_Floors(t *testing.T) {
	t.Parallel()

	params := DefaultParams()

	t.Run("low confidence caps REQUIRED", func(t *testing.T) {
		t.Parallel()
		ds := &DomainScore{Domain: assessment.DomainRevenueEngine, Score: 4.7, Confidence: 0.2}
		applyClassification(ds, &industry.Context{}, params)
		if ds.Severity != SeverityCritical {
			t.Errorf("severity = %q, want critical", ds.Severity)
		}
		if ds.AgentActivation != ActivationConditional {
			t.Errorf("activation = %q, want CONDITIONAL", ds.AgentActivation)
		}
	})

	t.Run("mandatory domain floors NOT_REQUIRED", func(t *testing.T) {
		t.Parallel()
		ictx := &industry.Context{Mandatory: []string{assessment.DomainRiskCompliance}}
		ds := &DomainScore{Domain: assessment.DomainRiskCompliance, Score: 2.0, Confidence: 0.9}
		applyClassification(ds, ictx, params)
		if ds.AgentActivation != ActivationConditional {
			t.Errorf("activation = %q, want CONDITIONAL floor", ds.AgentActivation)
		}
	})

	t.Run("mandatory does not downgrade REQUIRED", func(t *testing.T) {
		t.Parallel()
		ictx := &industry.Context{Mandatory: []string{assessment.DomainRiskCompliance}}
		ds := &DomainScore{Domain: assessment.DomainRiskCompliance, Score: 4.8, Confidence: 0.9}
		applyClassification(ds, ictx, params)
		if ds.AgentActivation != ActivationRequired {
			t.Errorf("activation = %q, want REQUIRED", ds.AgentActivation)
		}
	})
}
