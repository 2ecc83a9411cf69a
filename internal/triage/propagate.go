package triage

import (
	"sort"

	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/linnemanlabs/sift/internal/industry"
)

// correlatedPairs is the fixed table of domain pairs whose problems tend to
// surface together. Propagation is bidirectional within a pair.
var correlatedPairs = [][2]string{
	{assessment.DomainStrategicAlignment, assessment.DomainFinancialManagement},
	{assessment.DomainRevenueEngine, assessment.DomainCustomerExperience},
	{assessment.DomainOperationalExcellence, assessment.DomainTechnologyData},
	{assessment.DomainPeopleOrganization, assessment.DomainChangeManagement},
	{assessment.DomainRiskCompliance, assessment.DomainFinancialManagement},
	{assessment.DomainPartnerships, assessment.DomainCustomerSuccess},
}

// correlatedWith returns the domains paired with the given one.
func correlatedWith(domain string) []string {
	var peers []string
	for _, pair := range correlatedPairs {
		switch domain {
		case pair[0]:
			peers = append(peers, pair[1])
		case pair[1]:
			peers = append(peers, pair[0])
		}
	}
	return peers
}

// propagate applies cross-domain impact boosts: every domain at or above the
// propagation threshold boosts each scored correlated peer by the configured
// amount (capped at the score maximum). It reads the pre-propagation scores
// once, so a boost never cascades into further boosts and the pass is fully
// deterministic. Severity is recomputed for boosted domains.
func propagate(scores map[string]*DomainScore, ictx *industry.Context, params Params) {
	// Snapshot the boosters before mutating anything.
	var boosters []string
	for domain, ds := range scores {
		if ds.Score >= params.SelectionThreshold {
			boosters = append(boosters, domain)
		}
	}
	sort.Strings(boosters)

	for _, booster := range boosters {
		for _, peer := range correlatedWith(booster) {
			target, ok := scores[peer]
			if !ok {
				continue
			}
			target.Score = clamp(target.Score + params.BoostAmount)
			target.CrossDomainImpacts = append(target.CrossDomainImpacts, booster)
			applyClassification(target, ictx, params)
		}
	}
}
