package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLM is an adapter for Google's Gemini models.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

var _ LLM = (*GeminiLLM)(nil)

// NewGeminiLLM creates a Gemini adapter. The client is constructed eagerly so
// configuration errors surface at startup rather than mid-pipeline.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiLLM{client: client, model: model}, nil
}

// Model returns the model identifier.
func (g *GeminiLLM) Model() string {
	return g.model
}

// Complete generates a completion from Gemini.
func (g *GeminiLLM) Complete(ctx context.Context, prompt string, opts ...CallOption) (*Completion, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	if options.Temperature != nil {
		model.SetTemperature(float32(*options.Temperature))
	}
	if options.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*options.MaxTokens))
	}
	if options.TopP != nil {
		model.SetTopP(float32(*options.TopP))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	return &Completion{
		Text:   text,
		Model:  g.model,
		Origin: OriginProvider,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiLLM) Close() error {
	return g.client.Close()
}

// Unwrap returns the underlying genai client.
func (g *GeminiLLM) Unwrap() interface{} {
	return g.client
}
