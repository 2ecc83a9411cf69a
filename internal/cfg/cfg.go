package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds service-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	ClaudeAPIKey          string
	ClaudeModel           string
	CostOptimizedModel    string
	DatabaseURL           string
	SlackWebhookURL       string
	IndustryRulesPath     string

	AlgorithmVersion     string
	MinCompleteness      float64
	SelectionThreshold   float64
	MinConfidence        float64
	BoostAmount          float64
	MaxTokens            int
	MaxCostUSD           float64
	MaxProcessingSeconds int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API requests (empty = no auth)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for accessing the Claude LLM provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for enrichment calls")
	fs.StringVar(&c.CostOptimizedModel, "cost-optimized-model", "claude-3-5-haiku-20241022", "cheaper Claude model used on enrichment retry")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for notifications")
	fs.StringVar(&c.IndustryRulesPath, "industry-rules-path", "", "path to industry rule table YAML (empty = built-in defaults)")

	fs.StringVar(&c.AlgorithmVersion, "algorithm-version", "triage-v2", "version tag stamped on every analysis")
	fs.Float64Var(&c.MinCompleteness, "min-completeness", 40, "minimum domain completeness percentage to score (0..100)")
	fs.Float64Var(&c.SelectionThreshold, "selection-threshold", 4.0, "score at or above which a domain boosts correlated peers during propagation (1..5)")
	fs.Float64Var(&c.MinConfidence, "min-confidence", 0.3, "confidence floor below which REQUIRED activation is capped (0..1)")
	fs.Float64Var(&c.BoostAmount, "boost-amount", 0.2, "cross-domain propagation boost added to correlated domains")
	fs.IntVar(&c.MaxTokens, "max-tokens", 4096, "maximum output tokens per enrichment call")
	fs.Float64Var(&c.MaxCostUSD, "max-cost-usd", 0.50, "projected cost ceiling per triage in USD (0 = no ceiling)")
	fs.IntVar(&c.MaxProcessingSeconds, "max-processing-seconds", 120, "wall-clock budget for a single triage (1..600)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Claude API key is required for LLM access
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}

	// Claude model is required for LLM access
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	if c.AlgorithmVersion == "" {
		errs = append(errs, errors.New("ALGORITHM_VERSION is required"))
	}
	if c.MinCompleteness < 0 || c.MinCompleteness > 100 {
		errs = append(errs, fmt.Errorf("invalid MIN_COMPLETENESS %g (must be 0..100)", c.MinCompleteness))
	}
	if c.SelectionThreshold < 1 || c.SelectionThreshold > 5 {
		errs = append(errs, fmt.Errorf("invalid SELECTION_THRESHOLD %g (must be 1..5)", c.SelectionThreshold))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("invalid MIN_CONFIDENCE %g (must be 0..1)", c.MinConfidence))
	}
	if c.BoostAmount < 0 || c.BoostAmount > 1 {
		errs = append(errs, fmt.Errorf("invalid BOOST_AMOUNT %g (must be 0..1)", c.BoostAmount))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_TOKENS %d (must be positive)", c.MaxTokens))
	}
	if c.MaxCostUSD < 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_COST_USD %g (must not be negative)", c.MaxCostUSD))
	}
	if c.MaxProcessingSeconds <= 0 || c.MaxProcessingSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid MAX_PROCESSING_SECONDS %d (must be 1..600)", c.MaxProcessingSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
