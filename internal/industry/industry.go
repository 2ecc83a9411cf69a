// Package industry resolves a company's sector classification into the
// weighting multipliers and domain rules the triage engine applies.
package industry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/sift/internal/assessment"
)

// Regulatory classification values.
const (
	LightlyRegulated    = "lightly-regulated"
	ModeratelyRegulated = "moderately-regulated"
	HighlyRegulated     = "highly-regulated"
)

// UnknownSector is the sector used when no classification is supplied.
const UnknownSector = "unknown"

// SectorRules holds the per-sector scoring rules: a domain weighting
// multiplier map plus the domains the sector mandates or excludes.
type SectorRules struct {
	RegulatoryClass string             `yaml:"regulatory_class"`
	Multipliers     map[string]float64 `yaml:"multipliers"`
	Mandatory       []string           `yaml:"mandatory"`
	Excluded        []string           `yaml:"excluded"`
}

// RuleTable maps sector name to its rules. Supplied externally, read-only to
// the triage engine.
type RuleTable map[string]SectorRules

// Context is the resolved industry context for one triage run.
type Context struct {
	Sector          string             `json:"sector"`
	RegulatoryClass string             `json:"regulatory_class"`
	Multipliers     map[string]float64 `json:"multipliers"`
	Mandatory       []string           `json:"mandatory,omitempty"`
	Excluded        []string           `json:"excluded,omitempty"`
}

// Multiplier returns the weighting multiplier for a domain, defaulting to 1.0.
func (c *Context) Multiplier(domain string) float64 {
	if c == nil || c.Multipliers == nil {
		return 1.0
	}
	if m, ok := c.Multipliers[domain]; ok {
		return m
	}
	return 1.0
}

// IsExcluded reports whether the sector excludes the domain from scoring.
func (c *Context) IsExcluded(domain string) bool {
	if c == nil {
		return false
	}
	for _, d := range c.Excluded {
		if d == domain {
			return true
		}
	}
	return false
}

// IsMandatory reports whether the sector mandates deep coverage of the domain.
func (c *Context) IsMandatory(domain string) bool {
	if c == nil {
		return false
	}
	for _, d := range c.Mandatory {
		if d == domain {
			return true
		}
	}
	return false
}

// Resolver maps an assessment's classification to a Context.
type Resolver struct {
	table RuleTable
}

// NewResolver creates a resolver over the given rule table. A nil table
// resolves every sector to unweighted defaults.
func NewResolver(table RuleTable) *Resolver {
	if table == nil {
		table = DefaultRuleTable()
	}
	return &Resolver{table: table}
}

// Resolve returns the industry context for a classification. A missing or
// unrecognized classification resolves to the unknown sector with identity
// multipliers; resolution never fails.
func (r *Resolver) Resolve(ic *assessment.IndustryClassification) *Context {
	if ic == nil || ic.Sector == "" {
		return unknownContext()
	}

	rules, ok := r.table[ic.Sector]
	if !ok {
		ctx := unknownContext()
		ctx.Sector = ic.Sector
		if ic.RegulatoryClass != "" {
			ctx.RegulatoryClass = ic.RegulatoryClass
		}
		return ctx
	}

	regClass := rules.RegulatoryClass
	if ic.RegulatoryClass != "" {
		// explicit classification on the assessment wins over the table
		regClass = ic.RegulatoryClass
	}
	if regClass == "" {
		regClass = LightlyRegulated
	}

	return &Context{
		Sector:          ic.Sector,
		RegulatoryClass: regClass,
		Multipliers:     rules.Multipliers,
		Mandatory:       rules.Mandatory,
		Excluded:        rules.Excluded,
	}
}

func unknownContext() *Context {
	return &Context{
		Sector:          UnknownSector,
		RegulatoryClass: LightlyRegulated,
		Multipliers:     identityMultipliers(),
	}
}

func identityMultipliers() map[string]float64 {
	m := make(map[string]float64, len(assessment.Domains))
	for _, d := range assessment.Domains {
		m[d] = 1.0
	}
	return m
}

// LoadRuleTable reads a YAML rule table from disk.
func LoadRuleTable(path string) (RuleTable, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}

	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}

	for sector, rules := range table {
		for domain, mult := range rules.Multipliers {
			if mult <= 0 {
				return nil, fmt.Errorf("sector %q domain %q: multiplier %v must be positive", sector, domain, mult)
			}
		}
	}
	return table, nil
}

// DefaultRuleTable returns the built-in sector rules used when no rule file
// is configured. Multipliers stay within the 0.8-1.5 band.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		"fintech": {
			RegulatoryClass: HighlyRegulated,
			Multipliers: map[string]float64{
				assessment.DomainRiskCompliance:      1.4,
				assessment.DomainFinancialManagement: 1.3,
				assessment.DomainTechnologyData:      1.2,
			},
			Mandatory: []string{assessment.DomainRiskCompliance},
		},
		"healthcare": {
			RegulatoryClass: HighlyRegulated,
			Multipliers: map[string]float64{
				assessment.DomainRiskCompliance:        1.5,
				assessment.DomainOperationalExcellence: 1.2,
				assessment.DomainTechnologyData:        1.2,
			},
			Mandatory: []string{assessment.DomainRiskCompliance},
		},
		"saas": {
			RegulatoryClass: LightlyRegulated,
			Multipliers: map[string]float64{
				assessment.DomainRevenueEngine:      1.3,
				assessment.DomainCustomerSuccess:    1.2,
				assessment.DomainCustomerExperience: 1.1,
			},
		},
		"manufacturing": {
			RegulatoryClass: ModeratelyRegulated,
			Multipliers: map[string]float64{
				assessment.DomainOperationalExcellence: 1.4,
				assessment.DomainPartnerships:          1.1,
				assessment.DomainCustomerSuccess:       0.9,
			},
		},
		"retail": {
			RegulatoryClass: LightlyRegulated,
			Multipliers: map[string]float64{
				assessment.DomainCustomerExperience: 1.3,
				assessment.DomainRevenueEngine:      1.2,
				assessment.DomainRiskCompliance:     0.8,
			},
		},
	}
}
