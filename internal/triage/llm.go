package triage

import "context"

// Provider is the interface for any LLM backend used for enrichment.
type Provider interface {
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
}

// LLMRequest represents a single batched completion request covering all
// candidate domains for one triage run.
type LLMRequest struct {
	Model     string
	MaxTokens int
	System    string
	Prompt    string
}

// LLMResponse represents the provider's completion, including token usage.
type LLMResponse struct {
	Text  string
	Model string
	Usage Usage
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
