package inference

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Load fetches and validates both artifacts and returns the resulting context.
// Any failure is fatal for the caller; nothing is partially loaded.
func Load(ctx context.Context, logger *zap.Logger, fetcher *Fetcher, scalerURI, classifierURI string) (*InferenceContext, error) {
	start := time.Now()

	raw, err := fetcher.Fetch(ctx, scalerURI)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	scaler, err := ParseScaler(raw)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}

	raw, err = fetcher.Fetch(ctx, classifierURI)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	classifier, err := ParseClassifier(raw)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}

	ic, err := NewInferenceContext(scaler, classifier, Metadata{
		ScalerKind:        scaler.Kind(),
		ScalerVersion:     scaler.Version(),
		ClassifierKind:    classifier.Kind(),
		ClassifierVersion: classifier.Version(),
		LoadedAt:          time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}

	logger.Info("model_artifacts_loaded",
		zap.String("scaler_uri", scalerURI),
		zap.String("scaler_version", scaler.Version()),
		zap.String("classifier_uri", classifierURI),
		zap.String("classifier_version", classifier.Version()),
		zap.Int("feature_count", len(ic.schema)),
		zap.Duration("took", time.Since(start)))
	return ic, nil
}
