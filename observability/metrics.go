package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// InitMetrics initializes OpenTelemetry metrics with Prometheus export and
// installs the provider globally.
func InitMetrics(serviceName string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}

// PipelineMetrics records per-stage counters and latency for pipeline runs.
type PipelineMetrics struct {
	stageCounter    metric.Int64Counter
	errorCounter    metric.Int64Counter
	degradedCounter metric.Int64Counter
	stageLatency    metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instrument set on the global meter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("maestro.pipeline")

	stageCounter, err := meter.Int64Counter("pipeline.stage.runs",
		metric.WithDescription("Number of stage executions"))
	if err != nil {
		return nil, err
	}
	errorCounter, err := meter.Int64Counter("pipeline.stage.errors",
		metric.WithDescription("Number of stage executions that appended errors"))
	if err != nil {
		return nil, err
	}
	degradedCounter, err := meter.Int64Counter("pipeline.stage.degraded",
		metric.WithDescription("Number of stage executions that used a fallback result"))
	if err != nil {
		return nil, err
	}
	stageLatency, err := meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Stage execution duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		stageCounter:    stageCounter,
		errorCounter:    errorCounter,
		degradedCounter: degradedCounter,
		stageLatency:    stageLatency,
	}, nil
}

// RecordStage records one stage execution.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, errored, degraded bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.stageCounter.Add(ctx, 1, attrs)
	if errored {
		m.errorCounter.Add(ctx, 1, attrs)
	}
	if degraded {
		m.degradedCounter.Add(ctx, 1, attrs)
	}
	m.stageLatency.Record(ctx, duration.Seconds(), attrs)
}
