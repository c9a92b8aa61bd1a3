package services

import (
	"context"
	"sort"
	"time"

	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/scoring"

// ScoringResult is the successful outcome of scoring one transaction.
type ScoringResult struct {
	IsFraud          bool                 `json:"isFraud"`
	FraudProbability float64              `json:"fraud_probability"`
	Transaction      features.Transaction `json:"transaction"`
}

type ScoringService interface {
	// Score derives, validates, normalizes and classifies tx. Any stage failure fails the whole call.
	Score(ctx context.Context, traceID string, tx features.Transaction) (ScoringResult, error)
}

type ScoringServiceImpl struct {
	logger *zap.Logger
	ic     *inference.InferenceContext
	schema []string
	tracer trace.Tracer
}

func NewScoringService(logger *zap.Logger, ic *inference.InferenceContext) ScoringService {
	return &ScoringServiceImpl{
		logger: logger,
		ic:     ic,
		schema: ic.Schema(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *ScoringServiceImpl) Score(ctx context.Context, traceID string, tx features.Transaction) (ScoringResult, error) {
	_, span := s.tracer.Start(ctx, "scoring.score", trace.WithAttributes(
		attribute.String(pkg.TraceId, traceID),
		attribute.String("transaction.type", tx.Type),
	))
	defer span.End()

	start := time.Now()
	vector, err := features.Derive(tx)
	observeStage(observability.StageDerive, start)
	if err != nil {
		return ScoringResult{}, s.fail(span, observability.StageDerive, err)
	}
	featureMap := vector.Map()
	s.logger.Debug("features_derived", zap.String(pkg.TraceId, traceID), zap.Any("features", featureMap))
	span.AddEvent("features_derived")

	start = time.Now()
	if err = validateSchema(featureMap, s.schema); err != nil {
		observeStage(observability.StageValidate, start)
		return ScoringResult{}, s.fail(span, observability.StageValidate, err)
	}
	row := reorder(featureMap, s.schema)
	observeStage(observability.StageValidate, start)

	start = time.Now()
	normalized, err := s.ic.Normalizer().Transform(row)
	observeStage(observability.StageNormalize, start)
	if err != nil {
		return ScoringResult{}, s.fail(span, observability.StageNormalize,
			&ModelInferenceError{Stage: observability.StageNormalize, Err: err})
	}
	s.logger.Debug("features_normalized", zap.String(pkg.TraceId, traceID), zap.Float64s("normalized", normalized))
	span.AddEvent("features_normalized")

	start = time.Now()
	label, err := s.ic.Classifier().Predict(normalized)
	if err != nil {
		observeStage(observability.StageClassify, start)
		return ScoringResult{}, s.fail(span, observability.StageClassify,
			&ModelInferenceError{Stage: observability.StageClassify, Err: err})
	}
	probability, err := s.ic.Classifier().PredictProbability(normalized)
	observeStage(observability.StageClassify, start)
	if err != nil {
		return ScoringResult{}, s.fail(span, observability.StageClassify,
			&ModelInferenceError{Stage: observability.StageClassify, Err: err})
	}

	result := ScoringResult{
		IsFraud:          label != 0,
		FraudProbability: probability,
		Transaction:      tx,
	}
	s.logger.Debug("prediction_made",
		zap.String(pkg.TraceId, traceID),
		zap.Int("label", label),
		zap.Float64("fraud_probability", probability))
	span.SetAttributes(
		attribute.Bool("prediction.is_fraud", result.IsFraud),
		attribute.Float64("prediction.fraud_probability", probability),
	)

	outcome := observability.OutcomeLegitimate
	if result.IsFraud {
		outcome = observability.OutcomeFraud
	}
	observability.PredictionsTotal.WithLabelValues(outcome).Inc()
	observability.FraudProbability.Observe(probability)
	return result, nil
}

func (s *ScoringServiceImpl) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	observability.PredictionsTotal.WithLabelValues(observability.OutcomeFailed).Inc()
	observability.PredictionFailures.WithLabelValues(stage).Inc()
	return err
}

func observeStage(stage string, start time.Time) {
	observability.StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// validateSchema requires the key set of f to equal schema exactly.
func validateSchema(f map[string]float64, schema []string) error {
	expected := make(map[string]struct{}, len(schema))
	for _, name := range schema {
		expected[name] = struct{}{}
	}

	var missing, extra []string
	for _, name := range schema {
		if _, ok := f[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range f {
		if _, ok := expected[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &SchemaMismatchError{Missing: missing, Extra: extra}
}

// reorder lays f out in schema order. Callers validate the key set first.
func reorder(f map[string]float64, schema []string) []float64 {
	row := make([]float64, len(schema))
	for i, name := range schema {
		row[i] = f[name]
	}
	return row
}
