package llm

import (
	"context"
	"fmt"
	"strings"
)

// maxPromptEcho caps how much of the prompt a fallback completion echoes.
const maxPromptEcho = 500

// ResilientLLM wraps an LLM so that Complete never returns an error: provider
// failures become a labeled fallback completion instead. Callers can still
// tell the two apart through Completion.Origin.
//
// The pipeline stages are built on this wrapper, which is why a stage's
// generation call degrades to placeholder text rather than aborting the run.
type ResilientLLM struct {
	inner LLM
	label string
}

var _ LLM = (*ResilientLLM)(nil)

// NewResilientLLM wraps inner. The label names the provider in fallback text,
// e.g. "openai" or "groq".
func NewResilientLLM(inner LLM, label string) *ResilientLLM {
	if label == "" {
		label = "llm"
	}
	return &ResilientLLM{inner: inner, label: label}
}

// Model returns the wrapped model identifier.
func (r *ResilientLLM) Model() string {
	return r.inner.Model()
}

// Complete delegates to the wrapped LLM and converts any failure into a
// fallback completion naming the provider and echoing a truncated prompt.
func (r *ResilientLLM) Complete(ctx context.Context, prompt string, opts ...CallOption) (*Completion, error) {
	completion, err := r.inner.Complete(ctx, prompt, opts...)
	if err == nil {
		return completion, nil
	}
	return &Completion{
		Text:   fallbackText(r.label, prompt, err),
		Model:  r.inner.Model(),
		Origin: OriginFallback,
		Cause:  err,
	}, nil
}

func fallbackText(label, prompt string, err error) string {
	echo := prompt
	if len(echo) > maxPromptEcho {
		echo = echo[:maxPromptEcho]
	}
	return fmt.Sprintf("[FALLBACK %s] provider unavailable: %v. Prompt: %s",
		strings.ToUpper(label), err, echo)
}
