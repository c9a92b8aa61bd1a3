package services

import (
	"context"
	"sync"
	"time"

	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/observability"
	"go.uber.org/zap"
)

// Outcome is what a /predict call produced. Result is nil when Err is set.
type Outcome struct {
	TraceID     string
	Transaction features.Transaction
	Result      *ScoringResult
	Err         error
	ErrorCode   string
	At          time.Time
}

// Recorder persists or forwards an outcome after the reply has been decided.
type Recorder interface {
	Name() string
	Record(ctx context.Context, o Outcome) error
}

// PredictionRecorder fans outcomes out to every sink in the background.
// Failures are logged and counted; they never reach the caller.
type PredictionRecorder struct {
	logger  *zap.Logger
	sinks   []Recorder
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPredictionRecorder(logger *zap.Logger, timeout time.Duration, sinks ...Recorder) *PredictionRecorder {
	return &PredictionRecorder{logger: logger, sinks: sinks, timeout: timeout}
}

// Dispatch hands o to each sink. The request context is detached so a finished request does not cancel the write.
func (p *PredictionRecorder) Dispatch(ctx context.Context, o Outcome) {
	if len(p.sinks) == 0 {
		return
	}
	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}
	base := context.WithoutCancel(ctx)
	for _, sink := range p.sinks {
		p.wg.Add(1)
		go func(sink Recorder) {
			defer p.wg.Done()
			ctx, cancel := context.WithTimeout(base, p.timeout)
			defer cancel()
			if err := sink.Record(ctx, o); err != nil {
				observability.SideEffectFailures.WithLabelValues(sink.Name()).Inc()
				p.logger.Error("prediction_record_failed",
					zap.String(pkg.TraceId, o.TraceID),
					zap.String("sink", sink.Name()),
					zap.Error(err))
			}
		}(sink)
	}
}

// Wait blocks until every dispatched write has finished.
func (p *PredictionRecorder) Wait() {
	p.wg.Wait()
}
