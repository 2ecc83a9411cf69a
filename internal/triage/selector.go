package triage

import "sort"

// selectCritical chooses the domains flagged for deep-dive agent analysis.
//
// Ordering is fully deterministic: combined score descending, then combined
// confidence descending, then critical factor count descending, then domain
// id ascending. The selection size is max(MinCritical, count of REQUIRED
// activations), capped at MaxCritical. When fewer domains were scored than
// the minimum, all of them are selected; unscored domains are never padded in.
func selectCritical(scores map[string]*DomainScore, params Params) ([]string, error) {
	ranked := make([]*DomainScore, 0, len(scores))
	required := 0
	for _, ds := range scores {
		ranked = append(ranked, ds)
		if ds.AgentActivation == ActivationRequired {
			required++
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.CriticalFactors) != len(b.CriticalFactors) {
			return len(a.CriticalFactors) > len(b.CriticalFactors)
		}
		return a.Domain < b.Domain
	})

	k := params.MinCritical
	if required > k {
		k = required
	}
	if k > params.MaxCritical {
		k = params.MaxCritical
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	if k < params.MinCritical && len(ranked) >= params.MinCritical {
		return nil, errSelectionInvariant
	}

	selected := make([]string, 0, k)
	for _, ds := range ranked[:k] {
		selected = append(selected, ds.Domain)
	}
	return selected, nil
}
