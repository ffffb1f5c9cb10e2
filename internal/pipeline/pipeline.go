// Package pipeline runs one prediction request through collection, encoding,
// alignment and inference.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/hdb-resale-go/internal/artifacts"
	"github.com/irfndi/hdb-resale-go/internal/cache"
	"github.com/irfndi/hdb-resale-go/internal/collector"
	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/logging"
	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/observability"
	"github.com/irfndi/hdb-resale-go/internal/predictor"
	"github.com/irfndi/hdb-resale-go/internal/telemetry"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Stage is the position a request has reached.
type Stage string

const (
	StageCollected Stage = "collected"
	StageEncoded   Stage = "encoded"
	StageAligned   Stage = "aligned"
	StagePredicted Stage = "predicted"
	StageFailed    Stage = "failed"
)

// PredictionCache is the subset of the Redis cache the pipeline uses.
type PredictionCache interface {
	Get(ctx context.Context, key string) (*cache.PredictionCacheEntry, bool)
	Set(ctx context.Context, key string, price decimal.Decimal, strategy, modelVersion string, dropped []string) error
}

// HistoryStore records completed predictions.
type HistoryStore interface {
	Save(ctx context.Context, rec *models.PredictionRecord) error
}

// Options configures optional collaborators. The zero value is usable.
type Options struct {
	StrictAlignment bool
	Cache           PredictionCache
	History         HistoryStore
	Logger          logging.Logger
}

// Result is a successful run.
type Result struct {
	models.PredictionResult
	Record  models.RawInputRecord
	Dropped []string
}

// Error reports the stage at which a run failed. The underlying typed error
// is reachable with errors.As.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline failed at %s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Pipeline is safe for concurrent use. It holds only the read-only bundle
// and stateless encoders.
type Pipeline struct {
	bundle   *artifacts.Bundle
	onehot   *features.OneHotEncoder
	label    *features.LabelEncoder
	aligner  features.Aligner
	adapter  *predictor.Adapter
	cache    PredictionCache
	history  HistoryStore
	logger   logging.Logger
	tracer   trace.Tracer
	business *telemetry.BusinessTracer
}

// New wires a pipeline around bundle. For the label strategy the encoders
// must cover every schema column, otherwise a SchemaMismatchError is
// returned and the service must not start.
func New(bundle *artifacts.Bundle, opts Options) (*Pipeline, error) {
	if bundle == nil {
		return nil, &utils.SchemaMismatchError{Reason: "no artifact bundle"}
	}

	p := &Pipeline{
		bundle:   bundle,
		aligner:  features.Aligner{Strict: opts.StrictAlignment},
		adapter:  predictor.NewAdapter(bundle.Model, bundle.Schema),
		cache:    opts.Cache,
		history:  opts.History,
		logger:   opts.Logger,
		tracer:   telemetry.GetPipelineTracer(),
		business: telemetry.NewBusinessTracer(),
	}
	if p.logger == nil {
		p.logger = logging.NewStandardLoggerWithWriter(io.Discard, "error", "")
	}

	switch bundle.Strategy {
	case features.StrategyOneHot:
		p.onehot = features.NewOneHotEncoder()
	case features.StrategyLabel:
		enc, err := features.NewLabelEncoder(bundle.Schema, bundle.Encoders)
		if err != nil {
			return nil, err
		}
		p.label = enc
	default:
		return nil, fmt.Errorf("unsupported encoding strategy %q", bundle.Strategy)
	}

	return p, nil
}

// Strategy returns the encoding strategy the bundle was trained with.
func (p *Pipeline) Strategy() features.Strategy { return p.bundle.Strategy }

// ModelVersion returns the loaded model's version.
func (p *Pipeline) ModelVersion() string { return p.bundle.ModelVersion }

// Schema returns the loaded feature schema.
func (p *Pipeline) Schema() *features.Schema { return p.bundle.Schema }

// Run validates req and predicts a price for it.
func (p *Pipeline) Run(ctx context.Context, requestID string, req models.PredictionRequest) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.collect", trace.WithAttributes(
		attribute.String("stage", string(StageCollected)),
		attribute.String("strategy", string(p.bundle.Strategy)),
	))
	rec, err := collector.Collect(req)
	if err != nil {
		telemetry.RecordError(span, err)
		span.End()
		p.logger.WithRequestID(requestID).Info("Rejected prediction input", "error", err.Error())
		return nil, &Error{Stage: StageCollected, Err: err}
	}
	span.End()

	return p.RunRecord(ctx, requestID, rec)
}

// RunRecord predicts a price for an already collected record. Failures leave
// no partial result and do not affect later runs.
func (p *Pipeline) RunRecord(ctx context.Context, requestID string, rec models.RawInputRecord) (*Result, error) {
	start := time.Now()
	if requestID == "" {
		requestID = uuid.NewString()
	}
	strategy := string(p.bundle.Strategy)

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("model_version", p.bundle.ModelVersion),
		attribute.String("request_id", requestID),
	))
	defer span.End()
	ctx, sentrySpan := p.business.TracePrediction(ctx, strategy, p.bundle.ModelVersion)

	log := p.logger.WithStrategy(strategy).With("request_id", requestID)

	fail := func(stage Stage, err error) (*Result, error) {
		telemetry.RecordError(span, err)
		span.SetAttributes(attribute.String("stage", string(StageFailed)))
		p.business.RecordPredictionOutcome(sentrySpan, telemetry.PredictionOutcome{
			Stage:    string(StageFailed),
			Duration: time.Since(start),
			Err:      err,
		})
		p.report(ctx, log, stage, err)
		return nil, &Error{Stage: stage, Err: err}
	}

	// Encoding runs before the cache lookup so unknown categories and strict
	// alignment fail the same way whether or not a price is cached.
	vec, dropped, stage, err := p.encode(ctx, rec)
	span.SetAttributes(attribute.String("stage", string(stage)))
	if err != nil {
		return fail(stage, err)
	}
	if len(dropped) > 0 {
		log.Warn("Encoded columns not present in model schema were dropped",
			"dropped_columns", dropped)
	}

	key := cache.Key(rec, strategy, p.bundle.ModelVersion, p.bundle.Schema.Columns())
	if p.cache != nil {
		if entry, ok := p.cache.Get(ctx, key); ok {
			res := p.result(requestID, rec, entry.Price, entry.Dropped)
			res.Cached = true
			p.finish(ctx, span, sentrySpan, res, start)
			return res, nil
		}
	}

	price, err := p.predict(ctx, vec)
	if err != nil {
		return fail(StagePredicted, err)
	}

	res := p.result(requestID, rec, price, dropped)
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, price, strategy, p.bundle.ModelVersion, dropped); err != nil {
			p.logger.WithOperation("cache_set").Warn("Failed to cache prediction",
				"request_id", requestID, "error", err.Error())
		}
	}
	p.finish(ctx, span, sentrySpan, res, start)
	return res, nil
}

// encode returns the model input. On failure the returned stage is the one
// that failed, otherwise the last one completed.
func (p *Pipeline) encode(ctx context.Context, rec models.RawInputRecord) (features.Vector, []string, Stage, error) {
	_, span := p.tracer.Start(ctx, "pipeline.encode", trace.WithAttributes(
		attribute.String("stage", string(StageEncoded)),
		attribute.String("strategy", string(p.bundle.Strategy)),
	))
	defer span.End()

	if p.label != nil {
		vec, err := p.label.Encode(rec)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, StageEncoded, err
		}
		return vec, nil, StageEncoded, nil
	}

	sparse, err := p.onehot.Encode(rec)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, StageEncoded, err
	}

	_, alignSpan := p.tracer.Start(ctx, "pipeline.align", trace.WithAttributes(
		attribute.String("stage", string(StageAligned)),
		attribute.String("strategy", string(p.bundle.Strategy)),
	))
	defer alignSpan.End()

	aligned, err := p.aligner.Align(sparse, p.bundle.Schema)
	if err != nil {
		telemetry.RecordError(alignSpan, err)
		return nil, nil, StageAligned, err
	}
	if len(aligned.Dropped) > 0 {
		alignSpan.SetAttributes(attribute.StringSlice("dropped_columns", aligned.Dropped))
	}
	return aligned.Vector, aligned.Dropped, StageAligned, nil
}

func (p *Pipeline) predict(ctx context.Context, vec features.Vector) (decimal.Decimal, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetModelTracer(), "pipeline.predict", trace.WithAttributes(
		attribute.String("stage", string(StagePredicted)),
		attribute.String("strategy", string(p.bundle.Strategy)),
		attribute.Int("vector_width", len(vec)),
	))
	defer span.End()

	price, err := p.adapter.Predict(ctx, vec)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return price, err
}

func (p *Pipeline) result(requestID string, rec models.RawInputRecord, price decimal.Decimal, dropped []string) *Result {
	return &Result{
		PredictionResult: models.PredictionResult{
			ID:           uuid.NewString(),
			RequestID:    requestID,
			Price:        price,
			Strategy:     string(p.bundle.Strategy),
			ModelVersion: p.bundle.ModelVersion,
			CreatedAt:    time.Now().UTC(),
		},
		Record:  rec,
		Dropped: dropped,
	}
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, sentrySpan *sentry.Span, res *Result, start time.Time) {
	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("stage", string(StagePredicted)),
		attribute.Bool("cached", res.Cached),
	)
	p.business.RecordPredictionOutcome(sentrySpan, telemetry.PredictionOutcome{
		Stage:          string(StagePredicted),
		Price:          res.Price.StringFixed(2),
		Cached:         res.Cached,
		DroppedColumns: res.Dropped,
		Duration:       elapsed,
	})

	p.logger.LogPrediction(logging.PredictionEvent{
		RequestID:    res.RequestID,
		Strategy:     res.Strategy,
		ModelVersion: res.ModelVersion,
		Price:        res.Price.StringFixed(2),
		DurationMs:   elapsed.Milliseconds(),
		Cached:       res.Cached,
		Dropped:      res.Dropped,
	})

	if p.history != nil {
		rec := &models.PredictionRecord{
			PredictionResult: res.PredictionResult,
			Town:             string(res.Record.Town),
			FlatType:         string(res.Record.FlatType),
			StoreyRange:      string(res.Record.StoreyRange),
			FlatModel:        string(res.Record.FlatModel),
			FloorAreaSqm:     res.Record.FloorAreaSqm,
			LeaseYears:       res.Record.RemainingLeaseYears,
			AgeOfFlat:        res.Record.AgeOfFlat,
			DistanceToMRT:    res.Record.DistanceToMRT,
		}
		if err := p.history.Save(ctx, rec); err != nil {
			p.logger.WithRequestID(res.RequestID).Warn("Failed to record prediction history", "error", err.Error())
		}
	}
}

// report logs a failed run at a level matching who is at fault.
func (p *Pipeline) report(ctx context.Context, log *slog.Logger, stage Stage, err error) {
	var (
		unknown  *utils.UnknownCategoryError
		mismatch *utils.SchemaMismatchError
		predErr  *utils.PredictionError
	)
	switch {
	case errors.As(err, &unknown):
		log.Info("Category not recognised by trained encoder",
			"stage", stage, "field", unknown.Field, "value", unknown.Value)
	case errors.As(err, &mismatch):
		log.Error("Encoded features do not match model schema",
			"stage", stage, "fault", "configuration", "error", err.Error())
		observability.CaptureWithTags(ctx, err, map[string]string{
			"fault": "configuration",
			"stage": string(stage),
		})
	case errors.As(err, &predErr):
		log.Error("Model failed to produce a prediction", "stage", stage, "error", err.Error())
		observability.CaptureWithTags(ctx, err, map[string]string{"stage": string(stage)})
	default:
		log.Warn("Prediction failed", "stage", stage, "error", err.Error())
	}
}
