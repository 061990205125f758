package agents

import (
	"context"
	"fmt"

	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
)

// Content creates one piece of marketing copy per channel from the strategy.
type Content struct {
	llm llm.LLM
}

var _ maestro.Stage = (*Content)(nil)

// NewContent creates the content-creation stage.
func NewContent(model llm.LLM) *Content {
	return &Content{llm: model}
}

func (c *Content) Name() string { return "content" }

func (c *Content) InputFields() []string {
	return []string{maestro.FieldStrategy, maestro.FieldChannels}
}

func (c *Content) OutputFields() []string {
	return []string{maestro.FieldContentItems}
}

// Run generates content per channel. A nil Channels slice means the caller
// omitted the field and gets the default channel list; an explicitly empty
// slice stays empty and yields no content.
func (c *Content) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	if state.Strategy == "" {
		return maestro.ErrorResult("content: strategy missing from state"), nil
	}

	channels := state.Channels
	if channels == nil {
		channels = defaultChannels()
	}

	result := &maestro.StageResult{ContentItems: make([]string, 0, len(channels))}
	for _, channel := range channels {
		prompt := fmt.Sprintf(`You are a content specialist for digital marketing.

Strategy:
%s

Create content for the %s channel: one core idea and one ready-to-post text.`,
			state.Strategy, channel)

		completion, err := c.llm.Complete(ctx, prompt, llm.WithTemperature(0.7))
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("content: generation failed for %s: %v", channel, err))
			continue
		}
		if completion.Origin == llm.OriginFallback {
			result.Degraded = true
		}
		result.ContentItems = append(result.ContentItems, completion.Text)
	}

	return result, nil
}
