package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var requiredColumns = []string{
	"step", "type", "amount", "nameOrig", "oldbalanceOrg",
	"newbalanceOrig", "nameDest", "oldbalanceDest", "newbalanceDest",
}

const labelColumn = "isFraud"

type job struct {
	line  int
	tx    features.Transaction
	label *bool
}

// Stats are the replay counters. Confusion counts only cover labelled rows.
type Stats struct {
	Read           atomic.Int64
	Skipped        atomic.Int64
	Sent           atomic.Int64
	OK             atomic.Int64
	Failed         atomic.Int64
	PredictedFraud atomic.Int64
	TruePositive   atomic.Int64
	FalsePositive  atomic.Int64
	TrueNegative   atomic.Int64
	FalseNegative  atomic.Int64
}

func (s *Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("read", s.Read.Load()),
		zap.Int64("skipped", s.Skipped.Load()),
		zap.Int64("sent", s.Sent.Load()),
		zap.Int64("success", s.OK.Load()),
		zap.Int64("failed", s.Failed.Load()),
		zap.Int64("predicted_fraud", s.PredictedFraud.Load()),
		zap.Int64("true_positive", s.TruePositive.Load()),
		zap.Int64("false_positive", s.FalsePositive.Load()),
		zap.Int64("true_negative", s.TrueNegative.Load()),
		zap.Int64("false_negative", s.FalseNegative.Load()),
	}
}

// Replayer posts PaySim rows to /predict with a fixed worker pool behind an RPS limiter.
type Replayer struct {
	apiURL      string
	workers     int
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      *zap.Logger
	idempotency bool

	Stats Stats
}

// Run streams rows from src until EOF, limit rows (0 = all) or ctx cancellation.
func (r *Replayer) Run(ctx context.Context, src io.Reader, limit int) error {
	reader := csv.NewReader(src)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return err
	}

	jobs := make(chan job, r.workers*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				// throttle by RPS before sending the request
				if err := r.limiter.Wait(gctx); err != nil {
					return nil
				}
				r.send(gctx, j)
			}
			return nil
		})
	}

	// a read error cancels gctx so queued rows are dropped rather than sent
	g.Go(func() error {
		defer close(jobs)
		line := 1
		for limit <= 0 || int(r.Stats.Read.Load()) < limit {
			record, err := reader.Read()
			line++
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read csv line %d: %w", line, err)
			}
			r.Stats.Read.Add(1)

			j, err := parseRow(columns, record)
			if err != nil {
				r.Stats.Skipped.Add(1)
				r.logger.Warn("row_skipped", zap.Int("line", line), zap.Error(err))
				continue
			}
			j.line = line
			select {
			case <-gctx.Done():
				return nil
			case jobs <- j:
			}
		}
		return nil
	})

	return g.Wait()
}

func (r *Replayer) send(ctx context.Context, j job) {
	start := time.Now()
	r.Stats.Sent.Add(1)

	body, _ := json.Marshal(j.tx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL+"/predict", bytes.NewReader(body))
	if err != nil {
		r.Stats.Failed.Add(1)
		r.logger.Error("build_request_failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if r.idempotency {
		req.Header.Set(pkg.HeaderIdempotencyKey, fmt.Sprintf("replay-%d-%s", j.line, j.tx.NameOrig))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.Stats.Failed.Add(1)
		r.logger.Error("api_call_failed", zap.Int("line", j.line), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.Stats.Failed.Add(1)
		var e pkg.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		r.logger.Warn("prediction_rejected",
			zap.Int("line", j.line),
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", e.Code),
			zap.String("detail", e.Detail),
			zap.String(pkg.TraceId, resp.Header.Get(pkg.HeaderTraceId)))
		return
	}

	var result services.ScoringResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		r.Stats.Failed.Add(1)
		r.logger.Error("decode_response_failed", zap.Int("line", j.line), zap.Error(err))
		return
	}
	r.Stats.OK.Add(1)
	r.tally(result.IsFraud, j.label)
	r.logger.Debug("api_call_completed",
		zap.Int("line", j.line),
		zap.Bool("is_fraud", result.IsFraud),
		zap.Float64("fraud_probability", result.FraudProbability),
		zap.Duration("latency", time.Since(start)))
}

func (r *Replayer) tally(predicted bool, label *bool) {
	if predicted {
		r.Stats.PredictedFraud.Add(1)
	}
	if label == nil {
		return
	}
	switch {
	case predicted && *label:
		r.Stats.TruePositive.Add(1)
	case predicted && !*label:
		r.Stats.FalsePositive.Add(1)
	case !predicted && *label:
		r.Stats.FalseNegative.Add(1)
	default:
		r.Stats.TrueNegative.Add(1)
	}
}

// indexColumns maps column names to positions; the label column is optional.
func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", name)
		}
	}
	return idx, nil
}

func parseRow(columns map[string]int, record []string) (job, error) {
	field := func(name string) string { return record[columns[name]] }
	float := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return v, nil
	}

	var (
		j   job
		err error
	)
	if j.tx.Step, err = strconv.ParseInt(field("step"), 10, 64); err != nil {
		return job{}, fmt.Errorf("column step: %w", err)
	}
	j.tx.Type = field("type")
	j.tx.NameOrig = field("nameOrig")
	j.tx.NameDest = field("nameDest")
	if j.tx.Amount, err = float("amount"); err != nil {
		return job{}, err
	}
	if j.tx.OldBalanceOrg, err = float("oldbalanceOrg"); err != nil {
		return job{}, err
	}
	if j.tx.NewBalanceOrig, err = float("newbalanceOrig"); err != nil {
		return job{}, err
	}
	if j.tx.OldBalanceDest, err = float("oldbalanceDest"); err != nil {
		return job{}, err
	}
	if j.tx.NewBalanceDest, err = float("newbalanceDest"); err != nil {
		return job{}, err
	}

	if i, ok := columns[labelColumn]; ok && i < len(record) {
		label := record[i] == "1"
		j.label = &label
	}
	return j, nil
}
