package triage

import (
	"testing"
)

func rankedDomain(domain string, score, confidence float64, factors int, activation Activation) *DomainScore {
	return &DomainScore{
		Domain:          domain,
		Score:           score,
		Confidence:      confidence,
		CriticalFactors: make([]string, factors),
		AgentActivation: activation,
	}
}

func TestSelectCritical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []*DomainScore
		want   []string
	}{
		{
			name: "minimum selection pads below required",
			scores: []*DomainScore{
				rankedDomain("a", 4.8, 0.9, 2, ActivationRequired),
				rankedDomain("b", 3.2, 0.8, 0, ActivationNotRequired),
				rankedDomain("c", 2.1, 0.7, 0, ActivationNotRequired),
				rankedDomain("d", 1.5, 0.6, 0, ActivationNotRequired),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "required count expands selection past minimum",
			scores: []*DomainScore{
				rankedDomain("a", 4.9, 0.9, 1, ActivationRequired),
				rankedDomain("b", 4.7, 0.9, 1, ActivationRequired),
				rankedDomain("c", 4.6, 0.9, 1, ActivationRequired),
				rankedDomain("d", 4.2, 0.9, 1, ActivationRequired),
				rankedDomain("e", 3.0, 0.9, 0, ActivationNotRequired),
			},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "selection capped at maximum",
			scores: []*DomainScore{
				rankedDomain("a", 4.9, 0.9, 1, ActivationRequired),
				rankedDomain("b", 4.8, 0.9, 1, ActivationRequired),
				rankedDomain("c", 4.7, 0.9, 1, ActivationRequired),
				rankedDomain("d", 4.6, 0.9, 1, ActivationRequired),
				rankedDomain("e", 4.5, 0.9, 1, ActivationRequired),
				rankedDomain("f", 4.4, 0.9, 1, ActivationRequired),
				rankedDomain("g", 4.3, 0.9, 1, ActivationRequired),
			},
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "fewer scored than minimum selects all",
			scores: []*DomainScore{
				rankedDomain("b", 2.0, 0.5, 0, ActivationNotRequired),
				rankedDomain("a", 3.0, 0.5, 0, ActivationNotRequired),
			},
			want: []string{"a", "b"},
		},
		{
			name: "confidence breaks score ties",
			scores: []*DomainScore{
				rankedDomain("a", 4.0, 0.6, 0, ActivationRequired),
				rankedDomain("b", 4.0, 0.9, 0, ActivationRequired),
				rankedDomain("c", 3.0, 0.5, 0, ActivationNotRequired),
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "factor count breaks confidence ties",
			scores: []*DomainScore{
				rankedDomain("a", 4.0, 0.8, 1, ActivationRequired),
				rankedDomain("b", 4.0, 0.8, 3, ActivationRequired),
				rankedDomain("c", 3.0, 0.5, 0, ActivationNotRequired),
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "domain id breaks full ties",
			scores: []*DomainScore{
				rankedDomain("z", 4.0, 0.8, 1, ActivationRequired),
				rankedDomain("m", 4.0, 0.8, 1, ActivationRequired),
				rankedDomain("a", 4.0, 0.8, 1, ActivationRequired),
			},
			want: []string{"a", "m", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scores := make(map[string]*DomainScore, len(tt.scores))
			for _, ds := range tt.scores {
				scores[ds.Domain] = ds
			}

			got, err := selectCritical(scores, DefaultParams())
			if err != nil {
				t.Fatalf("selectCritical: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("selected %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("selected[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectCritical_Deterministic(t *testing.T) {
	t.Parallel()

	scores := map[string]*DomainScore{}
	for _, ds := range []*DomainScore{
		rankedDomain("financial-management", 4.7, 0.8, 2, ActivationRequired),
		rankedDomain("revenue-engine", 4.7, 0.8, 2, ActivationRequired),
		rankedDomain("risk-compliance", 4.1, 0.7, 1, ActivationRequired),
		rankedDomain("customer-success", 3.6, 0.7, 0, ActivationConditional),
		rankedDomain("technology-data", 3.6, 0.7, 0, ActivationConditional),
	} {
		scores[ds.Domain] = ds
	}

	first, err := selectCritical(scores, DefaultParams())
	if err != nil {
		t.Fatalf("selectCritical: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := selectCritical(scores, DefaultParams())
		if err != nil {
			t.Fatalf("selectCritical: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d produced %v, first run produced %v", i, again, first)
			}
		}
	}
}
