package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/linnemanlabs/sift/internal/industry"
)

const (
	// degradedConfidence is reported for every domain when enrichment is
	// unavailable. Confidence is never silently inflated in fallback mode.
	degradedConfidence = 0.5

	fallbackReasoning = "fallback: base score used"

	// retryBackoff is the pause before the single enrichment retry.
	retryBackoff = 2 * time.Second

	// promptBytesPerToken is the rough input size heuristic used for the
	// cost guard and for degraded token estimates.
	promptBytesPerToken = 4
)

// domainEnrichment is one domain's adjustment from the reasoning model.
type domainEnrichment struct {
	AdjustedScore   float64  `json:"adjusted_score"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	CriticalFactors []string `json:"critical_factors"`
	SeverityHint    string   `json:"severity"`
}

// enrichment is the parsed result of one batched enrichment call, or the
// deterministic degraded equivalent when the call could not be used.
type enrichment struct {
	Domains map[string]domainEnrichment
	Summary string

	Model           string
	Usage           Usage
	CallDuration    float64
	EstimatedTokens bool
	Degraded        bool
	DegradedReason  string
}

// enricher wraps a Provider with the failure policy from the triage contract:
// one retry with backoff (on the cost-optimized model), a cost guard before
// the first call, and a deterministic fallback when nothing usable comes back.
// Each attempt is bounded by a slice of the run's remaining deadline, so a
// hung provider degrades to the fallback instead of consuming the whole run.
// Enrichment errors are absorbed here, never surfaced to the engine's caller.
type enricher struct {
	provider Provider
	params   Params
	logger   log.Logger
	sleep    func(time.Duration) // test seam
}

func newEnricher(provider Provider, params Params, logger log.Logger) *enricher {
	return &enricher{
		provider: provider,
		params:   params,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// enrich performs the single batched enrichment call for a run. It always
// returns a usable enrichment; degraded results carry the reason.
func (e *enricher) enrich(ctx context.Context, a *assessment.Assessment, bases map[string]baseScore, ictx *industry.Context) *enrichment {
	prompt := buildEnrichmentPrompt(a, bases, ictx)
	estimatedIn := len(prompt) / promptBytesPerToken

	if e.provider == nil {
		return e.degraded(bases, "no provider configured", estimatedIn)
	}

	// Cost guard: skip the call entirely when the projected spend already
	// busts the per-run ceiling.
	projected := float64(estimatedIn)*e.params.InputTokenRate +
		float64(e.params.MaxTokens)*e.params.OutputTokenRate
	if e.params.MaxCostUSD > 0 && projected > e.params.MaxCostUSD {
		e.logger.Warn(ctx, "enrichment skipped by cost guard",
			"projected_cost_usd", projected,
			"max_cost_usd", e.params.MaxCostUSD,
		)
		return e.degraded(bases, "cost ceiling", estimatedIn)
	}

	req := &LLMRequest{
		Model:     e.params.Model,
		MaxTokens: e.params.MaxTokens,
		System:    enrichmentSystemPrompt,
		Prompt:    prompt,
	}

	result, err := e.attempt(ctx, req, bases)
	if err == nil {
		return result
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			// Host cancelled the run; the engine turns this into an
			// abandoned run rather than a degraded analysis.
			return e.degraded(bases, "cancelled", estimatedIn)
		}
		// The run's own processing deadline expired mid-call. Degrade
		// deterministically; the remainder of the run needs no provider.
		return e.degraded(bases, "enrichment timed out", estimatedIn)
	}
	e.logger.Warn(ctx, "enrichment call failed, retrying",
		"model", req.Model, "error", err.Error())

	e.sleep(retryBackoff)

	// Retry once on the cost-optimized model before degrading.
	retry := *req
	if e.params.CostOptimizedModel != "" {
		retry.Model = e.params.CostOptimizedModel
	}
	result, err = e.attempt(ctx, &retry, bases)
	if err == nil {
		return result
	}
	e.logger.Warn(ctx, "enrichment unavailable, using fallback",
		"model", retry.Model, "error", err.Error())

	return e.degraded(bases, fmt.Sprintf("enrichment unavailable: %v", err), estimatedIn)
}

// attempt bounds one provider call by half of the run's remaining deadline,
// leaving budget for the retry and the deterministic tail of the run.
func (e *enricher) attempt(ctx context.Context, req *LLMRequest, bases map[string]baseScore) (*enrichment, error) {
	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Until(deadline) / 2
		if budget <= 0 {
			return nil, context.DeadlineExceeded
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}
	return e.call(ctx, req, bases)
}

func (e *enricher) call(ctx context.Context, req *LLMRequest, bases map[string]baseScore) (*enrichment, error) {
	callStart := time.Now()
	resp, err := e.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	callDur := time.Since(callStart).Seconds()

	parsed, err := parseEnrichment(resp.Text, bases)
	if err != nil {
		return nil, fmt.Errorf("parse enrichment: %w", err)
	}

	parsed.Model = resp.Model
	if parsed.Model == "" {
		parsed.Model = req.Model
	}
	parsed.Usage = resp.Usage
	parsed.CallDuration = callDur
	return parsed, nil
}

func (e *enricher) degraded(bases map[string]baseScore, reason string, estimatedIn int) *enrichment {
	domains := make(map[string]domainEnrichment, len(bases))
	for domain, b := range bases {
		domains[domain] = domainEnrichment{
			AdjustedScore: b.Score,
			Confidence:    degradedConfidence,
			Reasoning:     fallbackReasoning,
		}
	}
	return &enrichment{
		Domains:         domains,
		Model:           e.params.FallbackModel,
		Usage:           Usage{InputTokens: estimatedIn},
		EstimatedTokens: true,
		Degraded:        true,
		DegradedReason:  reason,
	}
}

// parseEnrichment validates the model's structured response at the boundary.
// Any missing or out-of-range field is an error, which the caller turns into
// the fallback path rather than a propagated parse exception.
func parseEnrichment(text string, bases map[string]baseScore) (*enrichment, error) {
	var payload struct {
		Domains map[string]domainEnrichment `json:"domains"`
		Summary string                      `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if len(payload.Domains) == 0 {
		return nil, fmt.Errorf("response contains no domains")
	}

	for domain := range bases {
		de, ok := payload.Domains[domain]
		if !ok {
			return nil, fmt.Errorf("domain %q missing from response", domain)
		}
		if de.AdjustedScore < scoreMin || de.AdjustedScore > scoreMax {
			return nil, fmt.Errorf("domain %q adjusted_score %v out of range", domain, de.AdjustedScore)
		}
		if de.Confidence < 0 || de.Confidence > 1 {
			return nil, fmt.Errorf("domain %q confidence %v out of range", domain, de.Confidence)
		}
	}

	return &enrichment{Domains: payload.Domains, Summary: payload.Summary}, nil
}

// extractJSON strips any prose the model wraps around the JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

const enrichmentSystemPrompt = `You are a business assessment analyst. You review per-domain questionnaire scores for a company and adjust them using judgment about the answers and the company's industry context.

Respond with a single JSON object and nothing else:
{
  "domains": {
    "<domain-id>": {
      "adjusted_score": <float 1.0-5.0, higher means more severe gaps>,
      "confidence": <float 0.0-1.0>,
      "reasoning": "<one or two sentences>",
      "critical_factors": ["<short factor>", ...],
      "severity": "<low|medium|high|critical>"
    }
  },
  "summary": "<two sentence overall picture>"
}

Include every domain listed in the request. Keep adjusted scores within 1.0 of the base score unless the free-text answers clearly justify more.`

// buildEnrichmentPrompt summarizes every candidate domain into one batched
// request, so the run makes exactly one external call.
func buildEnrichmentPrompt(a *assessment.Assessment, bases map[string]baseScore, ictx *industry.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company assessment %s\n", a.ID)
	fmt.Fprintf(&b, "Industry: %s (%s)\n\n", ictx.Sector, ictx.RegulatoryClass)

	domains := make([]string, 0, len(bases))
	for d := range bases {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		base := bases[domain]
		dr := a.DomainResponses[domain]

		fmt.Fprintf(&b, "## %s\n", domain)
		fmt.Fprintf(&b, "base_score: %.2f\n", base.Score)
		fmt.Fprintf(&b, "completeness: %.0f%%\n", dr.Completeness())
		fmt.Fprintf(&b, "industry_multiplier: %.2f\n", ictx.Multiplier(domain))
		fmt.Fprintf(&b, "numeric_answers: %d\n", len(dr.NumericValues()))

		texts := freeTextAnswers(dr)
		if len(texts) > 0 {
			b.WriteString("notes:\n")
			for _, t := range texts {
				fmt.Fprintf(&b, "- %s\n", t)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Adjust each domain score and explain. Domains: %s\n", strings.Join(domains, ", "))
	return b.String()
}

const maxFreeTextLen = 400

func freeTextAnswers(dr *assessment.DomainResponse) []string {
	var qids []string
	for qid, a := range dr.Answers {
		if a.Value == nil && a.Text != "" {
			qids = append(qids, qid)
		}
	}
	sort.Strings(qids)

	var texts []string
	for _, qid := range qids {
		t := dr.Answers[qid].Text
		if len(t) > maxFreeTextLen {
			t = t[:maxFreeTextLen-3] + "..."
		}
		texts = append(texts, fmt.Sprintf("%s: %s", qid, t))
	}
	return texts
}
