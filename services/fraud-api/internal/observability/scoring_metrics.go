package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeFraud      = "fraud"
	OutcomeLegitimate = "legitimate"
	OutcomeFailed     = "failed"
)

// Pipeline stages.
const (
	StageDerive    = "derive"
	StageValidate  = "validate"
	StageNormalize = "normalize"
	StageClassify  = "classify"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_scoring",
			Name:      "predictions_total",
			Help:      "Scored transactions by outcome",
		},
		[]string{"outcome"},
	)

	PredictionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_scoring",
			Name:      "prediction_failures_total",
			Help:      "Failed scoring requests by pipeline stage",
		},
		[]string{"stage"},
	)

	FraudProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraud_scoring",
			Name:      "fraud_probability",
			Help:      "Distribution of predicted fraud probabilities",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	StageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraud_scoring",
			Name:      "stage_duration_seconds",
			Help:      "Latency of each scoring pipeline stage",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"stage"},
	)

	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_scoring",
			Name:      "side_effect_failures_total",
			Help:      "Audit and alert writes that failed after scoring",
		},
		[]string{"sink"},
	)
)
