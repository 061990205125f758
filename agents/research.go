// Package agents implements the six pipeline stages: research, strategy,
// content creation, publication, optimization, and the terminal orchestration
// check. Each stage performs at most one generation call per unit of work and
// reports missing upstream inputs by appending to the state's error list
// rather than failing the run.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
	"github.com/maestroia/maestro-go/memory"
	"github.com/maestroia/maestro-go/trends"
)

// Default inputs substituted when the caller omits them. Stages are lenient
// about missing context fields; only upstream *stage outputs* are hard
// requirements.
const (
	defaultObjective = "Digital marketing growth"
	defaultAudience  = "General audience"
)

func defaultChannels() []string {
	return []string{"Instagram", "Google"}
}

// Research analyzes the market for the campaign objective, folding a trends
// summary and similar past research into the prompt when those collaborators
// are configured.
type Research struct {
	llm    llm.LLM
	trends *trends.Summarizer
	memory *memory.Memory
}

var _ maestro.Stage = (*Research)(nil)

// NewResearch creates the research stage. Both the summarizer and the memory
// may be nil.
func NewResearch(model llm.LLM, summarizer *trends.Summarizer, mem *memory.Memory) *Research {
	return &Research{llm: model, trends: summarizer, memory: mem}
}

func (r *Research) Name() string { return "research" }

func (r *Research) InputFields() []string {
	return []string{maestro.FieldObjective, maestro.FieldTargetAudience}
}

func (r *Research) OutputFields() []string {
	return []string{maestro.FieldResearch}
}

// Run produces the market research summary. The stage has no required
// upstream stage output, so it never appends a missing-precondition error.
func (r *Research) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	objective := state.Objective
	if objective == "" {
		objective = defaultObjective
	}
	audience := state.TargetAudience
	if audience == "" {
		audience = defaultAudience
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the digital marketing landscape for this campaign.\n\n")
	fmt.Fprintf(&b, "Objective: %s\nTarget audience: %s\n", objective, audience)
	if r.trends != nil {
		keywords := append([]string{objective}, state.Channels...)
		fmt.Fprintf(&b, "\n%s\n", r.trends.Summary(ctx, keywords, trends.DefaultTimeframe, ""))
	}
	if r.memory != nil {
		if notes, err := r.memory.Recall(ctx, objective); err == nil && len(notes) > 0 {
			b.WriteString("\nNotes from similar past campaigns:\n")
			for _, note := range notes {
				fmt.Fprintf(&b, "- %s\n", note)
			}
		}
	}
	b.WriteString("\nSummarize current trends, opportunities, and risks.")

	completion, err := r.llm.Complete(ctx, b.String(), llm.WithTemperature(0.3))
	if err != nil {
		return maestro.ErrorResult(fmt.Sprintf("research: generation failed: %v", err)), nil
	}

	if r.memory != nil && completion.Origin == llm.OriginProvider {
		// Best effort: a failed write must not fail the stage.
		_ = r.memory.Remember(ctx, completion.Text)
	}

	return &maestro.StageResult{
		Research: maestro.String(completion.Text),
		Degraded: completion.Origin == llm.OriginFallback,
	}, nil
}
