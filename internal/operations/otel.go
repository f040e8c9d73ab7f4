package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"parisdash/internal/infrastructure"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "parisdash.pipeline"

// StepObserver is notified around every pipeline run and step. The context
// returned by a Start method is the one given to the matching End method.
type StepObserver interface {
	StartOperation(ctx context.Context, operationID string, stepCount int) context.Context
	EndOperation(ctx context.Context, state *OperationState)
	StartStep(ctx context.Context, operationID string, step Step) context.Context
	EndStep(ctx context.Context, state *StepState, err error)
}

type noopObserver struct{}

func (noopObserver) StartOperation(ctx context.Context, _ string, _ int) context.Context { return ctx }

func (noopObserver) EndOperation(context.Context, *OperationState) {}

func (noopObserver) StartStep(ctx context.Context, _ string, _ Step) context.Context { return ctx }

func (noopObserver) EndStep(context.Context, *StepState, error) {}

// OperationTracer records pipeline spans and the pipeline_* metrics
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewOperationTracer creates a tracer-backed observer. metrics may be nil.
func NewOperationTracer(providers *infrastructure.OTelProviders, metrics *infrastructure.BusinessMetrics) *OperationTracer {
	tracer := otel.Tracer(TracerName)
	if providers != nil && providers.Tracer != nil {
		tracer = providers.Tracer
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// StartOperation creates the root span of a run
func (ot *OperationTracer) StartOperation(ctx context.Context, operationID string, stepCount int) context.Context {
	ctx, _ = ot.tracer.Start(ctx, "pipeline.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.step_count", stepCount),
		),
	)
	return ctx
}

// EndOperation records the run metrics and ends the root span
func (ot *OperationTracer) EndOperation(ctx context.Context, state *OperationState) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.String("operation.status", string(state.GetStatus())),
		attribute.Float64("operation.duration_seconds", state.Duration().Seconds()),
	)
	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "pipeline completed")
	}
	infrastructure.RecordPipelineRunMetrics(ctx, ot.metrics, state.ID, state.Duration(), state.Error)
}

// StartStep creates the span of one step
func (ot *OperationTracer) StartStep(ctx context.Context, operationID string, step Step) context.Context {
	ctx, _ = ot.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
	return ctx
}

// EndStep records the step metrics and ends its span
func (ot *OperationTracer) EndStep(ctx context.Context, state *StepState, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	rows := state.RowsWritten()
	span.SetAttributes(
		attribute.String("step.status", string(state.GetStatus())),
		attribute.Int64("step.rows", rows),
	)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	infrastructure.RecordPipelineStepMetrics(ctx, ot.metrics, state.ID, state.Duration(), rows, err == nil)
}
