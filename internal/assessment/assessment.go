// Package assessment defines the input data model for triage: a business
// assessment with per-domain question responses and an optional industry
// classification. Assessments are validated and persisted by the intake
// service; this package treats them as read-only input.
package assessment

import "time"

// Canonical business capability domains covered by the assessment forms.
const (
	DomainStrategicAlignment    = "strategic-alignment"
	DomainFinancialManagement   = "financial-management"
	DomainRevenueEngine         = "revenue-engine"
	DomainCustomerExperience    = "customer-experience"
	DomainOperationalExcellence = "operational-excellence"
	DomainTechnologyData        = "technology-data"
	DomainPeopleOrganization    = "people-organization"
	DomainChangeManagement      = "change-management"
	DomainRiskCompliance        = "risk-compliance"
	DomainPartnerships          = "partnerships"
	DomainCustomerSuccess       = "customer-success"
)

// Domains lists every canonical domain identifier in stable order.
var Domains = []string{
	DomainStrategicAlignment,
	DomainFinancialManagement,
	DomainRevenueEngine,
	DomainCustomerExperience,
	DomainOperationalExcellence,
	DomainTechnologyData,
	DomainPeopleOrganization,
	DomainChangeManagement,
	DomainRiskCompliance,
	DomainPartnerships,
	DomainCustomerSuccess,
}

// Answer is a single question response. Numeric answers carry a 1-5 rating;
// free-text answers carry follow-up detail and are excluded from numeric
// scoring but retained for the enrichment prompt.
type Answer struct {
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// Answered reports whether the answer carries any content at all.
func (a Answer) Answered() bool {
	return a.Value != nil || a.Text != ""
}

// DomainResponse holds the responses for one domain's question set.
type DomainResponse struct {
	Domain        string            `json:"domain"`
	Answers       map[string]Answer `json:"answers"`
	QuestionCount int               `json:"question_count"`
}

// Completeness returns the percentage (0-100) of the domain's questions that
// received a non-null answer. When the form's question count is unknown the
// answered set itself is used as the denominator.
func (d *DomainResponse) Completeness() float64 {
	if d == nil || len(d.Answers) == 0 {
		return 0
	}

	answered := 0
	for _, a := range d.Answers {
		if a.Answered() {
			answered++
		}
	}

	total := d.QuestionCount
	if total < len(d.Answers) {
		total = len(d.Answers)
	}
	if total == 0 {
		return 0
	}
	return float64(answered) / float64(total) * 100
}

// NumericValues returns the numeric answer values in no particular order.
// Null and free-text answers are excluded, not treated as zero.
func (d *DomainResponse) NumericValues() []float64 {
	if d == nil {
		return nil
	}
	var vals []float64
	for _, a := range d.Answers {
		if a.Value != nil {
			vals = append(vals, *a.Value)
		}
	}
	return vals
}

// FreeTextCount returns the number of answered free-text questions.
func (d *DomainResponse) FreeTextCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, a := range d.Answers {
		if a.Value == nil && a.Text != "" {
			n++
		}
	}
	return n
}

// IndustryClassification describes the company's sector context. Optional;
// triage degrades to unweighted scoring when absent.
type IndustryClassification struct {
	Sector          string `json:"sector"`
	SubSector       string `json:"sub_sector,omitempty"`
	RegulatoryClass string `json:"regulatory_class,omitempty"` // lightly-, moderately-, highly-regulated
	BusinessModel   string `json:"business_model,omitempty"`
	CompanyStage    string `json:"company_stage,omitempty"`
}

// Assessment is a persisted intake record fetched by the calling handler.
// Immutable input, owned by the caller.
type Assessment struct {
	ID              string                     `json:"id"`
	CompanyID       string                     `json:"company_id"`
	Industry        *IndustryClassification    `json:"industry,omitempty"`
	DomainResponses map[string]*DomainResponse `json:"domain_responses"`
	SubmittedAt     time.Time                  `json:"submitted_at"`
}
