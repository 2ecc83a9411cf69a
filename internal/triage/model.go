package triage

import (
	"time"

	"github.com/linnemanlabs/sift/internal/industry"
)

// Status tracks where a triage run is in its lifecycle.
type Status string

const (
	// StatusPending means created, not yet started
	StatusPending Status = "pending"

	// StatusInProgress means currently being processed
	StatusInProgress Status = "in_progress"

	// StatusComplete means finished with a full analysis
	StatusComplete Status = "complete"

	// StatusRejected means the assessment failed validation before scoring
	StatusRejected Status = "rejected"

	// StatusFailed means an unexpected internal failure
	StatusFailed Status = "failed"
)

// Severity tiers assigned per domain.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Priority levels reported to the dashboard layer.
type Priority string

const (
	PriorityHealthy  Priority = "HEALTHY"
	PriorityModerate Priority = "MODERATE"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Activation indicates whether a domain requires a deep-dive agent pass.
type Activation string

const (
	ActivationNotRequired Activation = "NOT_REQUIRED"
	ActivationConditional Activation = "CONDITIONAL"
	ActivationRequired    Activation = "REQUIRED"
)

// DomainScore is the per-domain triage outcome. Scores stay in [1.0, 5.0]
// and confidence in [0.0, 1.0]; the impact propagator is the only step that
// mutates a score after assembly.
type DomainScore struct {
	Domain             string     `json:"domain"`
	BaseScore          float64    `json:"base_score"`
	Score              float64    `json:"score"`
	Confidence         float64    `json:"confidence"`
	Severity           Severity   `json:"severity"`
	PriorityLevel      Priority   `json:"priority_level"`
	AgentActivation    Activation `json:"agent_activation"`
	Reasoning          string     `json:"reasoning,omitempty"`
	CriticalFactors    []string   `json:"critical_factors,omitempty"`
	CrossDomainImpacts []string   `json:"cross_domain_impacts,omitempty"`
	Completeness       float64    `json:"completeness"`
}

// ProcessingMetrics records cost and timing for one triage run.
type ProcessingMetrics struct {
	Duration        float64 `json:"duration_seconds"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	EstimatedTokens bool    `json:"estimated_tokens,omitempty"`
	CostUSD         float64 `json:"cost_usd"`
	Model           string  `json:"model"`
	Fallback        bool    `json:"fallback,omitempty"`
	FallbackReason  string  `json:"fallback_reason,omitempty"`
}

// Analysis is the aggregate triage result. Produced exactly once per run and
// immutable once returned.
type Analysis struct {
	AlgorithmVersion string                  `json:"algorithm_version"`
	DomainScores     map[string]*DomainScore `json:"domain_scores"`
	CriticalDomains  []string                `json:"critical_domains"`
	Confidence       float64                 `json:"confidence"`
	Reasoning        string                  `json:"reasoning"`
	IndustryContext  *industry.Context       `json:"industry_context"`
	Metrics          ProcessingMetrics       `json:"processing_metrics"`
}

// Result is the persisted lifecycle record wrapping an Analysis.
type Result struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	CompanyID    string    `json:"company_id,omitempty"`
	Status       Status    `json:"status"`
	Analysis     *Analysis `json:"analysis,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Params is the engine's tuning surface. All behavior depends on these
// documented values, never on ambient environment state.
type Params struct {
	AlgorithmVersion string

	// Model identifiers for the enrichment client.
	Model              string
	FallbackModel      string
	CostOptimizedModel string

	// MinCompleteness is the percentage of answered questions a domain needs
	// to be scoreable.
	MinCompleteness float64

	// SelectionThreshold is the combined score at or above which a domain
	// acts as a booster during cross-domain propagation, raising the scores
	// of its correlated peers.
	SelectionThreshold float64

	// MinConfidence caps agent activation at CONDITIONAL below this floor.
	MinConfidence float64

	// BoostAmount is the cross-domain impact boost applied per correlated pair.
	BoostAmount float64

	// MinCritical and MaxCritical bound the critical domain selection.
	MinCritical int
	MaxCritical int

	// MaxProcessingTime bounds the whole run including the enrichment retry.
	MaxProcessingTime time.Duration

	// MaxTokens is the enrichment response token budget.
	MaxTokens int

	// MaxCostUSD is the per-run cost ceiling; projected cost above it skips
	// enrichment entirely.
	MaxCostUSD float64

	// Per-token pricing used for the cost estimate.
	InputTokenRate  float64
	OutputTokenRate float64
}

// DefaultParams returns the documented defaults for every tuning knob.
func DefaultParams() Params {
	return Params{
		AlgorithmVersion:   "triage-v2",
		Model:              "claude-sonnet-4-20250514",
		FallbackModel:      "deterministic-base",
		CostOptimizedModel: "claude-3-5-haiku-20241022",
		MinCompleteness:    40,
		SelectionThreshold: 4.0,
		MinConfidence:      0.3,
		BoostAmount:        0.2,
		MinCritical:        3,
		MaxCritical:        5,
		MaxProcessingTime:  120 * time.Second,
		MaxTokens:          4096,
		MaxCostUSD:         0.50,
		InputTokenRate:     3e-6,  // $3 per 1M input tokens
		OutputTokenRate:    15e-6, // $15 per 1M output tokens
	}
}
