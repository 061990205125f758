// Package pipeline wires ordered stages into the marketing production line
// and executes them over shared campaign state.
//
// The chain is strictly sequential: one entry, one terminal node, no fan-out.
// A stage's partial result is merged into the running state before the next
// stage begins. Stage-level problems accumulate in the state's error list;
// the only error Run itself returns is context cancellation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/maestroia/maestro-go/maestro"
	"github.com/maestroia/maestro-go/observability"
)

// Pipeline executes a fixed ordered list of stages.
type Pipeline struct {
	name    string
	stages  []maestro.Stage
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.PipelineMetrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-stage progress.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracer sets the tracer used for per-stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithMetrics sets the metrics recorder for stage executions.
func WithMetrics(metrics *observability.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = metrics }
}

// New creates a pipeline over the given stages, executed in order.
func New(name string, stages []maestro.Stage, opts ...Option) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}
	p := &Pipeline{
		name:   name,
		stages: stages,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Descriptors returns the ordered stage descriptors, the inspectable shape of
// the chain.
func (p *Pipeline) Descriptors() []maestro.StageDescriptor {
	descs := make([]maestro.StageDescriptor, len(p.stages))
	for i, s := range p.stages {
		descs[i] = maestro.Describe(s)
	}
	return descs
}

// Run walks the chain over a copy of initial and returns the final merged
// state. Stage errors other than cancellation are absorbed into the state's
// error list so the terminal stage always gets to settle the status.
func (p *Pipeline) Run(ctx context.Context, initial *maestro.CampaignState) (*maestro.CampaignState, error) {
	if initial == nil {
		initial = &maestro.CampaignState{}
	}
	state := initial.Clone()

	for i, stage := range p.stages {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("pipeline cancelled at stage %d (%s): %w", i, stage.Name(), ctx.Err())
		default:
		}

		stageCtx, span := p.tracer.Start(ctx, "stage."+stage.Name(),
			trace.WithAttributes(attribute.Int("stage.index", i)))

		start := time.Now()
		result, err := stage.Run(stageCtx, state)
		elapsed := time.Since(start)

		if err != nil {
			span.End()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("pipeline cancelled at stage %d (%s): %w", i, stage.Name(), ctx.Err())
			}
			// Absorb: the run continues, the terminal stage will see it.
			result = maestro.ErrorResult(fmt.Sprintf("%s: %v", stage.Name(), err))
		} else {
			span.End()
		}

		errored := result != nil && len(result.Errors) > 0
		degraded := result != nil && result.Degraded
		result.Apply(state)

		p.metrics.RecordStage(ctx, stage.Name(), elapsed, errored, degraded)
		p.logger.InfoContext(ctx, "stage finished",
			"pipeline", p.name,
			"stage", stage.Name(),
			"duration", elapsed,
			"errored", errored,
			"degraded", degraded,
		)
	}

	return state, nil
}

// Default assembles the canonical six-stage marketing chain:
// research → strategy → content → publish → optimize → conduct.
func Default(research, strategy, content, publish, optimize, conduct maestro.Stage, opts ...Option) (*Pipeline, error) {
	return New("marketing", []maestro.Stage{research, strategy, content, publish, optimize, conduct}, opts...)
}
