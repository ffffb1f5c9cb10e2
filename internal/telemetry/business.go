package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// BusinessTracer records pipeline runs as Sentry performance spans.
type BusinessTracer struct{}

// PredictionOutcome summarises one pipeline run for span data.
type PredictionOutcome struct {
	Stage          string
	Price          string
	Cached         bool
	DroppedColumns []string
	Duration       time.Duration
	Err            error
}

func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{}
}

// TracePrediction starts a span for one prediction. The returned context
// carries the span so nested spans attach to it.
func (bt *BusinessTracer) TracePrediction(ctx context.Context, strategy, modelVersion string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, "prediction")
	span.SetTag("strategy", strategy)
	span.SetTag("model_version", modelVersion)
	return span.Context(), span
}

// RecordPredictionOutcome adds the run's outcome and finishes span.
func (bt *BusinessTracer) RecordPredictionOutcome(span *sentry.Span, outcome PredictionOutcome) {
	if span == nil {
		return
	}
	span.SetTag("stage", outcome.Stage)
	span.SetData("cached", outcome.Cached)
	span.SetData("duration_ms", outcome.Duration.Milliseconds())
	if outcome.Price != "" {
		span.SetData("price", outcome.Price)
	}
	if len(outcome.DroppedColumns) > 0 {
		span.SetData("dropped_columns", outcome.DroppedColumns)
	}
	if outcome.Err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("error", outcome.Err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}

// TraceArtifactLoad starts a span covering artifact loading at startup.
func (bt *BusinessTracer) TraceArtifactLoad(ctx context.Context, kind, path string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, "artifact_load")
	span.SetTag("artifact_kind", kind)
	span.SetData("path", path)
	return span.Context(), span
}
