// Package llm provides the text-generation collaborator interface used by the
// pipeline stages, with adapters for OpenAI-compatible providers and Gemini.
//
// The interface is intentionally small: stages only need single-prompt
// completions. Provider clients are constructed once at process start and
// passed into stage constructors; nothing in this package holds global state.
package llm

import "context"

// Origin distinguishes text that came from a live provider call from text
// substituted locally after a failure.
type Origin string

const (
	// OriginProvider marks text returned by the configured provider.
	OriginProvider Origin = "provider"

	// OriginFallback marks locally-substituted placeholder text. Cause on
	// the Completion carries the triggering error.
	OriginFallback Origin = "fallback"
)

// Completion is the result of a generation call.
type Completion struct {
	Text   string
	Model  string
	Origin Origin

	// Cause is the provider error that triggered a fallback. Nil when
	// Origin is OriginProvider.
	Cause error
}

// LLM generates text from a prompt.
type LLM interface {
	// Complete sends one prompt and returns the generated text.
	Complete(ctx context.Context, prompt string, opts ...CallOption) (*Completion, error)

	// Model returns the model identifier this instance targets.
	Model() string
}

// CallOptions holds per-call generation options.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// CallOption is a functional option for configuring a generation call.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens caps the number of tokens generated.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// BuildCallOptions applies functional options to a fresh CallOptions.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
