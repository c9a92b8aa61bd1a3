// Package inference holds the fitted model artifacts and the read-only context the scoring path uses.
package inference

import (
	"fmt"
	"time"
)

// Normalizer is a fitted feature scaler.
type Normalizer interface {
	// FeatureNames lists the columns Transform expects, in order.
	FeatureNames() []string
	Transform(x []float64) ([]float64, error)
}

// Classifier is a fitted binary classifier over normalized rows.
type Classifier interface {
	Predict(x []float64) (int, error)
	PredictProbability(x []float64) (float64, error)
}

// Metadata describes the loaded artifacts.
type Metadata struct {
	ScalerKind        string    `json:"scalerKind"`
	ScalerVersion     string    `json:"scalerVersion"`
	ClassifierKind    string    `json:"classifierKind"`
	ClassifierVersion string    `json:"classifierVersion"`
	FeatureCount      int       `json:"featureCount"`
	LoadedAt          time.Time `json:"loadedAt"`
}

// InferenceContext bundles the expected schema, normalizer and classifier.
// It is built once before serving and never mutated, so it is safe for concurrent use.
type InferenceContext struct {
	schema     []string
	normalizer Normalizer
	classifier Classifier
	meta       Metadata
}

// NewInferenceContext validates that the artifacts agree on the input width.
func NewInferenceContext(normalizer Normalizer, classifier Classifier, meta Metadata) (*InferenceContext, error) {
	if normalizer == nil || classifier == nil {
		return nil, fmt.Errorf("normalizer and classifier are required")
	}
	schema := normalizer.FeatureNames()
	if err := validateFeatureNames(schema); err != nil {
		return nil, err
	}
	if sized, ok := classifier.(interface{ NumFeatures() int }); ok && sized.NumFeatures() != len(schema) {
		return nil, fmt.Errorf("classifier expects %d features but scaler provides %d", sized.NumFeatures(), len(schema))
	}

	meta.FeatureCount = len(schema)
	return &InferenceContext{
		schema:     schema,
		normalizer: normalizer,
		classifier: classifier,
		meta:       meta,
	}, nil
}

// Schema returns a copy of the expected feature names in order.
func (ic *InferenceContext) Schema() []string {
	return append([]string(nil), ic.schema...)
}

func (ic *InferenceContext) Normalizer() Normalizer { return ic.normalizer }
func (ic *InferenceContext) Classifier() Classifier { return ic.classifier }
func (ic *InferenceContext) Metadata() Metadata     { return ic.meta }
