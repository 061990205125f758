package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
)

// Strategy turns the market research into a structured per-channel strategy.
type Strategy struct {
	llm llm.LLM
}

var _ maestro.Stage = (*Strategy)(nil)

// NewStrategy creates the strategy stage.
func NewStrategy(model llm.LLM) *Strategy {
	return &Strategy{llm: model}
}

func (s *Strategy) Name() string { return "strategy" }

func (s *Strategy) InputFields() []string {
	return []string{maestro.FieldResearch, maestro.FieldObjective, maestro.FieldTargetAudience, maestro.FieldChannels}
}

func (s *Strategy) OutputFields() []string {
	return []string{maestro.FieldStrategy}
}

// Run builds the strategy. Missing research is a missing precondition: the
// stage appends an error and does nothing else.
func (s *Strategy) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	if state.Research == "" {
		return maestro.ErrorResult("strategy: market research missing from state"), nil
	}

	objective := state.Objective
	if objective == "" {
		objective = defaultObjective
	}
	audience := state.TargetAudience
	if audience == "" {
		audience = defaultAudience
	}
	channels := state.Channels
	if channels == nil {
		channels = defaultChannels()
	}

	prompt := fmt.Sprintf(`You are a senior digital marketing strategist.

Objective: %s
Target audience: %s
Channels: %s

Market research:
%s

Based on the above, produce a strategy covering positioning, core message,
per-channel approach, and success KPIs. Be clear, direct, and professional.`,
		objective, audience, strings.Join(channels, ", "), state.Research)

	completion, err := s.llm.Complete(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return maestro.ErrorResult(fmt.Sprintf("strategy: generation failed: %v", err)), nil
	}

	return &maestro.StageResult{
		Strategy: maestro.String(completion.Text),
		Degraded: completion.Origin == llm.OriginFallback,
	}, nil
}
