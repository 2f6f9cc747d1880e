// Package llm wraps pluggable LlmProvider implementations with the
// bounded-pool/semaphore/circuit-breaker/failover machinery spec'd for
// C11, generalized from the pack's llmux Router (other_examples) and the
// teacher's own pool/breaker idioms into a provider-agnostic client pool.
package llm

import "context"

// CompletionRequest is the minimal shape a provider needs to produce a
// completion; concrete providers are an external collaborator, so this
// stays deliberately generic.
type CompletionRequest struct {
	Model    string
	Prompt   string
	MaxTokens int
}

type CompletionResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

type EmbedRequest struct {
	Model string
	Input []string
}

type EmbedResponse struct {
	Vectors [][]float64
}

// Capabilities describes what a provider supports, so the pool/chain can
// filter candidates before dispatch.
type Capabilities struct {
	SupportsCompletion bool
	SupportsEmbedding  bool
	MaxContextTokens   int
}

// Provider is the capability contract every LLM backend implements —
// spec §4.10's {complete, embed, capabilities, estimate_cost,
// health_check, is_available}.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error)
	Capabilities() Capabilities
	EstimateCost(tokens int) float64
	HealthCheck(ctx context.Context) error
	IsAvailable() bool
}
