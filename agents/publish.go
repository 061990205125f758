package agents

import (
	"context"
	"fmt"

	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
)

// Publisher delivers a piece of content to a channel and returns a short
// status text. Implementations cover real platform APIs; SimulatedPublisher
// keeps the pipeline self-contained when none are configured.
type Publisher interface {
	Publish(ctx context.Context, channel, content string) (string, error)
}

// SimulatedPublisher acknowledges publications without calling any platform.
type SimulatedPublisher struct{}

var _ Publisher = SimulatedPublisher{}

// Publish returns a simulated delivery receipt.
func (SimulatedPublisher) Publish(_ context.Context, channel, content string) (string, error) {
	return fmt.Sprintf("simulated: published %d chars to %s", len(content), channel), nil
}

// Publish formats each channel's content for posting and hands it to the
// configured Publisher, recording a per-channel status text.
type Publish struct {
	llm       llm.LLM
	publisher Publisher
}

var _ maestro.Stage = (*Publish)(nil)

// NewPublish creates the publication stage. A nil publisher defaults to the
// simulated one.
func NewPublish(model llm.LLM, publisher Publisher) *Publish {
	if publisher == nil {
		publisher = SimulatedPublisher{}
	}
	return &Publish{llm: model, publisher: publisher}
}

func (p *Publish) Name() string { return "publish" }

func (p *Publish) InputFields() []string {
	return []string{maestro.FieldContentItems, maestro.FieldChannels}
}

func (p *Publish) OutputFields() []string {
	return []string{maestro.FieldPublications}
}

// Run publishes one content item per channel. Channels beyond the content
// list reuse the last item; publisher failures become a failed status text
// for that channel, not a run error.
func (p *Publish) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	if len(state.ContentItems) == 0 {
		return maestro.ErrorResult("publish: content items missing from state"), nil
	}

	channels := state.Channels
	if channels == nil {
		channels = defaultChannels()
	}

	result := &maestro.StageResult{Publications: make(map[string]string, len(channels))}
	for i, channel := range channels {
		item := state.ContentItems[min(i, len(state.ContentItems)-1)]

		prompt := fmt.Sprintf("Format the following content as a final %s post:\n\n%s", channel, item)
		completion, err := p.llm.Complete(ctx, prompt, llm.WithTemperature(0.4))
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("publish: formatting failed for %s: %v", channel, err))
			continue
		}
		if completion.Origin == llm.OriginFallback {
			result.Degraded = true
		}

		status, err := p.publisher.Publish(ctx, channel, completion.Text)
		if err != nil {
			status = fmt.Sprintf("failed: %v", err)
		}
		result.Publications[channel] = status
	}

	return result, nil
}
