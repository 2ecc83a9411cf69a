package triage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/assessment"
	"github.com/linnemanlabs/sift/internal/industry"
)

func testBases(scores map[string]float64) map[string]baseScore {
	bases := make(map[string]baseScore, len(scores))
	for d, s := range scores {
		bases[d] = baseScore{Domain: d, Score: s}
	}
	return bases
}

func TestParseEnrichment(t *testing.T) {
	t.Parallel()

	bases := testBases(map[string]float64{"financial-management": 4.0, "revenue-engine": 3.0})

	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name: "valid response",
			text: `{"domains":{"financial-management":{"adjusted_score":4.2,"confidence":0.8,"reasoning":"r"},"revenue-engine":{"adjusted_score":3.1,"confidence":0.7,"reasoning":"r"}},"summary":"s"}`,
		},
		{
			name: "prose around the object",
			text: "Here is my analysis:\n" +
				`{"domains":{"financial-management":{"adjusted_score":4.2,"confidence":0.8},"revenue-engine":{"adjusted_score":3.1,"confidence":0.7}},"summary":"s"}` +
				"\nLet me know if you need more.",
		},
		{
			name:    "not json",
			text:    "I cannot score this assessment.",
			wantErr: "unmarshal",
		},
		{
			name:    "no domains",
			text:    `{"domains":{},"summary":"s"}`,
			wantErr: "no domains",
		},
		{
			name:    "base domain missing",
			text:    `{"domains":{"financial-management":{"adjusted_score":4.2,"confidence":0.8}},"summary":"s"}`,
			wantErr: `"revenue-engine" missing`,
		},
		{
			name:    "score below range",
			text:    `{"domains":{"financial-management":{"adjusted_score":0.5,"confidence":0.8},"revenue-engine":{"adjusted_score":3.1,"confidence":0.7}}}`,
			wantErr: "adjusted_score",
		},
		{
			name:    "score above range",
			text:    `{"domains":{"financial-management":{"adjusted_score":5.5,"confidence":0.8},"revenue-engine":{"adjusted_score":3.1,"confidence":0.7}}}`,
			wantErr: "adjusted_score",
		},
		{
			name:    "confidence out of range",
			text:    `{"domains":{"financial-management":{"adjusted_score":4.2,"confidence":1.2},"revenue-engine":{"adjusted_score":3.1,"confidence":0.7}}}`,
			wantErr: "confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := parseEnrichment(tt.text, bases)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEnrichment: %v", err)
			}
			if len(parsed.Domains) != 2 {
				t.Errorf("parsed %d domains, want 2", len(parsed.Domains))
			}
			if parsed.Summary != "s" {
				t.Errorf("summary = %q, want %q", parsed.Summary, "s")
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":1} suffix", `{"a":1}`},
		{"nested {\"a\":{\"b\":2}} tail", `{"a":{"b":2}}`},
		{"no braces at all", "no braces at all"},
		{"only open {", "only open {"},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildEnrichmentPrompt(t *testing.T) {
	t.Parallel()

	longNote := strings.Repeat("x", maxFreeTextLen+100)
	a := testAssessment(map[string]*assessment.DomainResponse{
		assessment.DomainRevenueEngine: numericDomain(assessment.DomainRevenueEngine, 3.5, 4),
		assessment.DomainCustomerSuccess: {
			Domain: assessment.DomainCustomerSuccess,
			Answers: map[string]assessment.Answer{
				"q1": {Value: fptr(2.0)},
				"q3": {Text: "churn is rising in enterprise accounts"},
				"q2": {Text: longNote},
			},
			QuestionCount: 3,
		},
	})
	bases := testBases(map[string]float64{
		assessment.DomainRevenueEngine:   3.5,
		assessment.DomainCustomerSuccess: 2.0,
	})
	ictx := &industry.Context{
		Sector:          "saas",
		RegulatoryClass: "standard",
		Multipliers:     map[string]float64{assessment.DomainRevenueEngine: 1.2},
	}

	prompt := buildEnrichmentPrompt(a, bases, ictx)

	if !strings.Contains(prompt, "Company assessment asm-test") {
		t.Error("prompt missing assessment id")
	}
	if !strings.Contains(prompt, "Industry: saas (standard)") {
		t.Error("prompt missing industry context")
	}

	csIdx := strings.Index(prompt, "## "+assessment.DomainCustomerSuccess)
	reIdx := strings.Index(prompt, "## "+assessment.DomainRevenueEngine)
	if csIdx < 0 || reIdx < 0 || csIdx > reIdx {
		t.Errorf("domain sections missing or unsorted: customer-success at %d, revenue-engine at %d", csIdx, reIdx)
	}

	for _, want := range []string{
		"base_score: 3.50",
		"industry_multiplier: 1.20",
		"numeric_answers: 4",
		"- q2: " + longNote[:maxFreeTextLen-3] + "...",
		"- q3: churn is rising in enterprise accounts",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Free-text notes are emitted in question id order.
	if strings.Index(prompt, "- q2:") > strings.Index(prompt, "- q3:") {
		t.Error("free-text notes not sorted by question id")
	}
}

func TestEnrich_NoProvider(t *testing.T) {
	t.Parallel()

	e := newEnricher(nil, DefaultParams(), log.Nop())
	bases := testBases(map[string]float64{"financial-management": 4.1})

	enr := e.enrich(context.Background(), testAssessment(nil), bases, &industry.Context{})

	if !enr.Degraded {
		t.Fatal("expected degraded enrichment")
	}
	if enr.DegradedReason != "no provider configured" {
		t.Errorf("reason = %q", enr.DegradedReason)
	}
	if enr.Model != DefaultParams().FallbackModel {
		t.Errorf("model = %q, want %q", enr.Model, DefaultParams().FallbackModel)
	}
	if !enr.EstimatedTokens {
		t.Error("degraded enrichment must flag estimated tokens")
	}

	de, ok := enr.Domains["financial-management"]
	if !ok {
		t.Fatal("degraded enrichment missing base domain")
	}
	if !almostEqual(de.AdjustedScore, 4.1) {
		t.Errorf("adjusted score = %v, want base 4.1", de.AdjustedScore)
	}
	if !almostEqual(de.Confidence, degradedConfidence) {
		t.Errorf("confidence = %v, want %v", de.Confidence, degradedConfidence)
	}
	if de.Reasoning != fallbackReasoning {
		t.Errorf("reasoning = %q, want %q", de.Reasoning, fallbackReasoning)
	}
}

func TestEnrich_CostGuard(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	params.MaxCostUSD = 0.000001

	provider := &mockProvider{}
	e := newEnricher(provider, params, log.Nop())
	bases := testBases(map[string]float64{"financial-management": 4.1})

	a := testAssessment(map[string]*assessment.DomainResponse{
		assessment.DomainFinancialManagement: numericDomain(assessment.DomainFinancialManagement, 4.1, 5),
	})
	enr := e.enrich(context.Background(), a, bases, &industry.Context{})

	if provider.calls() != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls())
	}
	if !enr.Degraded || enr.DegradedReason != "cost ceiling" {
		t.Errorf("degraded=%v reason=%q, want cost ceiling", enr.Degraded, enr.DegradedReason)
	}
	if enr.Usage.InputTokens == 0 {
		t.Error("degraded enrichment should carry the input token estimate")
	}
}

func TestEnrich_RetrySucceeds(t *testing.T) {
	t.Parallel()

	bases := testBases(map[string]float64{"financial-management": 4.1})
	provider := &mockProvider{
		errs: []error{errors.New("overloaded")},
		responses: []*LLMResponse{
			nil,
			{
				Text:  `{"domains":{"financial-management":{"adjusted_score":4.3,"confidence":0.8,"reasoning":"r"}},"summary":"s"}`,
				Model: "claude-3-5-haiku-20241022",
				Usage: Usage{InputTokens: 500, OutputTokens: 200},
			},
		},
	}

	e := newEnricher(provider, DefaultParams(), log.Nop())
	e.sleep = func(d time.Duration) {
		if d != retryBackoff {
			t.Errorf("sleep %v, want %v", d, retryBackoff)
		}
	}

	a := testAssessment(map[string]*assessment.DomainResponse{
		assessment.DomainFinancialManagement: numericDomain(assessment.DomainFinancialManagement, 4.1, 5),
	})
	enr := e.enrich(context.Background(), a, bases, &industry.Context{})

	if provider.calls() != 2 {
		t.Fatalf("provider called %d times, want 2", provider.calls())
	}
	if enr.Degraded {
		t.Fatalf("retry succeeded but enrichment degraded: %s", enr.DegradedReason)
	}
	if enr.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q", enr.Model)
	}
	if enr.Usage.OutputTokens != 200 {
		t.Errorf("output tokens = %d, want 200", enr.Usage.OutputTokens)
	}
}

func TestEnrich_MalformedResponseTriggersRetry(t *testing.T) {
	t.Parallel()

	bases := testBases(map[string]float64{"financial-management": 4.1})
	provider := &mockProvider{
		responses: []*LLMResponse{
			{Text: "not json at all", Model: claudeTestModel},
			{Text: "still not json", Model: claudeTestModel},
		},
	}

	e := newEnricher(provider, DefaultParams(), log.Nop())
	e.sleep = func(time.Duration) {}

	a := testAssessment(map[string]*assessment.DomainResponse{
		assessment.DomainFinancialManagement: numericDomain(assessment.DomainFinancialManagement, 4.1, 5),
	})
	enr := e.enrich(context.Background(), a, bases, &industry.Context{})

	if provider.calls() != 2 {
		t.Fatalf("provider called %d times, want 2", provider.calls())
	}
	if !enr.Degraded {
		t.Fatal("unparseable responses must degrade")
	}
	if !strings.Contains(enr.DegradedReason, "enrichment unavailable") {
		t.Errorf("reason = %q", enr.DegradedReason)
	}
}
