package agents

import (
	"context"
	"fmt"

	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
)

// MetricsSource reports campaign KPIs for the published channels. The
// simulated source stands in until an analytics integration exists.
type MetricsSource interface {
	CampaignMetrics(ctx context.Context, publications map[string]string) (map[string]float64, error)
}

// SimulatedMetrics returns fixed KPIs.
type SimulatedMetrics struct{}

var _ MetricsSource = SimulatedMetrics{}

// CampaignMetrics returns the simulated clicks/conversions/roi triple.
func (SimulatedMetrics) CampaignMetrics(context.Context, map[string]string) (map[string]float64, error) {
	return map[string]float64{"clicks": 150, "conversions": 10, "roi": 2.5}, nil
}

// Optimize reads the campaign KPIs and asks the model for optimization notes.
type Optimize struct {
	llm     llm.LLM
	metrics MetricsSource
}

var _ maestro.Stage = (*Optimize)(nil)

// NewOptimize creates the optimization stage. A nil source defaults to the
// simulated metrics.
func NewOptimize(model llm.LLM, metrics MetricsSource) *Optimize {
	if metrics == nil {
		metrics = SimulatedMetrics{}
	}
	return &Optimize{llm: model, metrics: metrics}
}

func (o *Optimize) Name() string { return "optimize" }

func (o *Optimize) InputFields() []string {
	return []string{maestro.FieldPublications}
}

func (o *Optimize) OutputFields() []string {
	return []string{maestro.FieldMetrics, maestro.FieldOptimizationNotes}
}

// Run collects metrics and produces optimization notes.
func (o *Optimize) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	if len(state.Publications) == 0 {
		return maestro.ErrorResult("optimize: publication results missing from state"), nil
	}

	kpis, err := o.metrics.CampaignMetrics(ctx, state.Publications)
	if err != nil {
		return maestro.ErrorResult(fmt.Sprintf("optimize: metrics unavailable: %v", err)), nil
	}

	prompt := fmt.Sprintf(`Campaign KPIs: %v
Publications: %v

Suggest concrete optimizations to improve these numbers.`, kpis, state.Publications)

	completion, err := o.llm.Complete(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return maestro.ErrorResult(fmt.Sprintf("optimize: generation failed: %v", err)), nil
	}

	return &maestro.StageResult{
		Metrics:           kpis,
		OptimizationNotes: maestro.String(completion.Text),
		Degraded:          completion.Origin == llm.OriginFallback,
	}, nil
}
