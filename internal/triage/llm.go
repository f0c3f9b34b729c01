package triage

import "context"

// Provider is the interface for any reasoning backend.
type Provider interface {
	Send(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
}

// LLMRequest is a single-shot reasoning request. Triage never holds a
// conversation; every request carries its full context.
type LLMRequest struct {
	MaxTokens int
	System    string
	Prompt    string
}

// LLMResponse carries the generated text and token usage.
type LLMResponse struct {
	Text  string
	Usage Usage
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
