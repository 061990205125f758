package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAILLM is an adapter for OpenAI chat models.
//
// The same adapter serves any OpenAI-compatible endpoint: pass a base URL via
// NewOpenAICompatibleLLM to target Groq or a local gateway.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

var _ LLM = (*OpenAILLM)(nil)

// NewOpenAILLM creates an adapter for api.openai.com.
func NewOpenAILLM(apiKey, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAILLM{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewOpenAICompatibleLLM creates an adapter for an OpenAI-compatible endpoint
// such as Groq's.
func NewOpenAICompatibleLLM(apiKey, baseURL, model string) *OpenAILLM {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model returns the model identifier.
func (o *OpenAILLM) Model() string {
	return o.model
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (o *OpenAILLM) Complete(ctx context.Context, prompt string, opts ...CallOption) (*Completion, error) {
	options := BuildCallOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	return &Completion{
		Text:   resp.Choices[0].Message.Content,
		Model:  resp.Model,
		Origin: OriginProvider,
	}, nil
}

// Unwrap returns the underlying OpenAI client for provider-specific features.
func (o *OpenAILLM) Unwrap() interface{} {
	return o.client
}
