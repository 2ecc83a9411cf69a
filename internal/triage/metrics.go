package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal    *prometheus.CounterVec
	TriageDuration  *prometheus.HistogramVec
	TriageTokensIn  prometheus.Histogram
	TriageTokensOut prometheus.Histogram
	TriageCostUSD   prometheus.Histogram
	TriageDomains   prometheus.Histogram
	CriticalDomains prometheus.Histogram
	Confidence      prometheus.Histogram
	FallbacksTotal  *prometheus.CounterVec
	LLMCallsTotal   prometheus.Counter
	LLMTokensIn     prometheus.Counter
	LLMTokensOut    prometheus.Counter
	LLMDuration     prometheus.Histogram
	SubmitsTotal    *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_triages_total",
			Help: "Total triage runs by final status.",
		}, []string{"status"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s .. ~128s
		}, []string{"model"}),
		TriageTokensIn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_tokens_input",
			Help:    "Input tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100 .. ~102400
		}),
		TriageTokensOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_tokens_output",
			Help:    "Output tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100 .. ~102400
		}),
		TriageCostUSD: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_cost_usd",
			Help:    "Estimated cost per triage run in USD.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // $0.001 .. ~$0.50
		}),
		TriageDomains: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_scored_domains",
			Help:    "Domains scored per triage run.",
			Buckets: prometheus.LinearBuckets(1, 1, 12), // 1 .. 12
		}),
		CriticalDomains: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_critical_domains",
			Help:    "Critical domains selected per triage run.",
			Buckets: prometheus.LinearBuckets(0, 1, 6), // 0 .. 5
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_triage_confidence",
			Help:    "Aggregate confidence per triage run.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_enrichment_fallbacks_total",
			Help: "Enrichment fallbacks by reason.",
		}, []string{"reason"}),
		LLMCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_llm_calls_total",
			Help: "Total successful LLM enrichment calls.",
		}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_submits_total",
			Help: "Total assessment submissions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.TriageTokensIn,
		m.TriageTokensOut,
		m.TriageCostUSD,
		m.TriageDomains,
		m.CriticalDomains,
		m.Confidence,
		m.FallbacksTotal,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.SubmitsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(inputTokens, outputTokens int, duration float64) {
			m.LLMCallsTotal.Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
		OnFallback: func(reason string) {
			m.FallbacksTotal.WithLabelValues(fallbackReasonLabel(reason)).Inc()
		},
		OnComplete: func(e *CompleteEvent) {
			m.TriageDuration.WithLabelValues(e.Model).Observe(e.Duration)
			m.TriageTokensIn.Observe(float64(e.TokensIn))
			m.TriageTokensOut.Observe(float64(e.TokensOut))
			m.TriageCostUSD.Observe(e.CostUSD)
			m.TriageDomains.Observe(float64(e.ScoredDomains))
			m.CriticalDomains.Observe(float64(e.CriticalDomains))
			m.Confidence.Observe(e.Confidence)
		},
	}
}

// fallbackReasonLabel buckets free-form degradation reasons to keep label
// cardinality bounded.
func fallbackReasonLabel(reason string) string {
	switch reason {
	case "cost ceiling", "cancelled", "no provider configured", "enrichment timed out":
		return reason
	default:
		return "enrichment_unavailable"
	}
}
