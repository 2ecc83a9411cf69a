package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/linnemanlabs/sift/internal/industry"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sift/internal/triage")

const maxNarrativeLen = 600

// EngineHooks are optional callbacks for instrumentation.
type EngineHooks struct {
	OnLLMCall  func(inputTokens, outputTokens int, duration float64)
	OnFallback func(reason string)
	OnComplete func(e *CompleteEvent)
}

// CompleteEvent summarizes one finished triage run for metrics.
type CompleteEvent struct {
	Model           string
	Duration        float64
	TokensIn        int
	TokensOut       int
	CostUSD         float64
	Fallback        bool
	ScoredDomains   int
	CriticalDomains int
	Confidence      float64
}

// Engine runs the triage pipeline for a single assessment: validation, base
// scoring, industry resolution, one batched enrichment call, score
// combination, cross-domain impact propagation, critical domain selection,
// and result assembly. The engine is stateless between invocations; all
// configuration is read-only and injected at construction.
type Engine struct {
	enricher *enricher
	resolver *industry.Resolver
	params   Params
	logger   log.Logger
	hooks    EngineHooks
}

// NewEngine creates a triage engine with the given dependencies.
func NewEngine(provider Provider, resolver *industry.Resolver, params Params, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if resolver == nil {
		resolver = industry.NewResolver(nil)
	}
	return &Engine{
		enricher: newEnricher(provider, params, logger),
		resolver: resolver,
		params:   params,
		logger:   logger,
		hooks:    hooks,
	}
}

// Run executes the full pipeline. It returns either a complete, internally
// consistent Analysis or an error; there is never a partial result. The only
// documented rejection errors are ErrMalformedAssessment and
// ErrInsufficientData; enrichment failures are absorbed into fallback mode
// and recorded only in the processing metrics.
func (e *Engine) Run(ctx context.Context, a *assessment.Assessment) (*Analysis, error) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, e.params.MaxProcessingTime)
	defer cancel()

	runCtx, span := tracer.Start(runCtx, "triage.run", trace.WithAttributes(
		attribute.String("sift.assessment.id", a.ID),
	))
	defer span.End()

	L := e.logger.With("assessment_id", a.ID)

	scoreable, err := validateAssessment(a, e.params.MinCompleteness)
	if err != nil {
		return nil, err
	}

	ictx := e.resolver.Resolve(a.Industry)

	bases := make(map[string]baseScore)
	completeness := make(map[string]float64)
	for _, domain := range scoreable {
		if ictx.IsExcluded(domain) {
			continue
		}
		dr := a.DomainResponses[domain]
		b, ok := calculateBase(domain, dr)
		if !ok {
			continue
		}
		bases[domain] = b
		completeness[domain] = dr.Completeness()
	}
	if len(bases) == 0 {
		return nil, ErrInsufficientData
	}

	enr := e.enricher.enrich(runCtx, a, bases, ictx)
	if ctx.Err() != nil {
		// The host cancelled the run: no partial result. The engine's own
		// processing deadline is not abandonment; enrichment degrades to
		// fallback and the deterministic remainder finishes.
		return nil, fmt.Errorf("triage abandoned: %w", ctx.Err())
	}

	if enr.Degraded {
		if e.hooks.OnFallback != nil {
			e.hooks.OnFallback(enr.DegradedReason)
		}
	} else if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(enr.Usage.InputTokens, enr.Usage.OutputTokens, enr.CallDuration)
	}

	scores := combine(bases, enr, ictx, e.params, completeness)
	propagate(scores, ictx, e.params)

	critical, err := selectCritical(scores, e.params)
	if err != nil {
		// Internal assertion only. Degrade to a plain top-N selection so the
		// complete-or-rejected contract holds.
		L.Error(runCtx, err, "critical domain selection assertion failed")
		critical = topNDomains(scores, e.params.MaxCritical)
	}

	analysis := e.assemble(a, scores, critical, ictx, enr, start)

	span.SetAttributes(
		attribute.Int("sift.triage.scored_domains", len(scores)),
		attribute.Int("sift.triage.critical_domains", len(critical)),
		attribute.Bool("sift.triage.fallback", enr.Degraded),
	)

	L.Info(runCtx, "triage complete",
		"scored_domains", len(scores),
		"critical_domains", len(critical),
		"confidence", analysis.Confidence,
		"fallback", enr.Degraded,
		"duration", analysis.Metrics.Duration,
		"cost_usd", analysis.Metrics.CostUSD,
	)

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(&CompleteEvent{
			Model:           analysis.Metrics.Model,
			Duration:        analysis.Metrics.Duration,
			TokensIn:        analysis.Metrics.InputTokens,
			TokensOut:       analysis.Metrics.OutputTokens,
			CostUSD:         analysis.Metrics.CostUSD,
			Fallback:        enr.Degraded,
			ScoredDomains:   len(scores),
			CriticalDomains: len(critical),
			Confidence:      analysis.Confidence,
		})
	}

	return analysis, nil
}

func (e *Engine) assemble(a *assessment.Assessment, scores map[string]*DomainScore, critical []string, ictx *industry.Context, enr *enrichment, start time.Time) *Analysis {
	cost := float64(enr.Usage.InputTokens)*e.params.InputTokenRate +
		float64(enr.Usage.OutputTokens)*e.params.OutputTokenRate

	return &Analysis{
		AlgorithmVersion: e.params.AlgorithmVersion,
		DomainScores:     scores,
		CriticalDomains:  critical,
		Confidence:       aggregateConfidence(scores),
		Reasoning:        buildNarrative(scores, critical, ictx, enr),
		IndustryContext:  ictx,
		Metrics: ProcessingMetrics{
			Duration:        time.Since(start).Seconds(),
			InputTokens:     enr.Usage.InputTokens,
			OutputTokens:    enr.Usage.OutputTokens,
			EstimatedTokens: enr.EstimatedTokens,
			CostUSD:         cost,
			Model:           enr.Model,
			Fallback:        enr.Degraded,
			FallbackReason:  enr.DegradedReason,
		},
	}
}

func aggregateConfidence(scores map[string]*DomainScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, ds := range scores {
		sum += ds.Confidence
	}
	return clampConfidence(sum / float64(len(scores)))
}

// buildNarrative concatenates the industry context sentence with the top two
// critical domains' reasoning, bounded in length.
func buildNarrative(scores map[string]*DomainScore, critical []string, ictx *industry.Context, enr *enrichment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assessed as %s sector (%s); %d domains scored, %d flagged critical.",
		ictx.Sector, ictx.RegulatoryClass, len(scores), len(critical))

	if enr.Summary != "" {
		b.WriteString(" ")
		b.WriteString(enr.Summary)
	}

	for i, domain := range critical {
		if i >= 2 {
			break
		}
		ds := scores[domain]
		if ds == nil || ds.Reasoning == "" {
			continue
		}
		fmt.Fprintf(&b, " %s: %s", domain, ds.Reasoning)
	}

	narrative := b.String()
	if len(narrative) > maxNarrativeLen {
		narrative = narrative[:maxNarrativeLen-3] + "..."
	}
	return narrative
}

func topNDomains(scores map[string]*DomainScore, n int) []string {
	domains := make([]string, 0, len(scores))
	for d := range scores {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if scores[domains[i]].Score != scores[domains[j]].Score {
			return scores[domains[i]].Score > scores[domains[j]].Score
		}
		return domains[i] < domains[j]
	})
	if n > len(domains) {
		n = len(domains)
	}
	return domains[:n]
}
