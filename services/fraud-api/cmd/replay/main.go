// Command replay streams a PaySim CSV through POST /predict and reports how the model did.
//
// Example:
//
//	go run ./services/fraud-api/cmd/replay \
//	  -file=PS_20174392719_1491204439457_log.csv \
//	  -limit=50000 \
//	  -workers=50 \
//	  -rps=500 \
//	  -apiUrl=http://localhost:8080
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// --------- CLI flags ---------
var (
	file                = flag.String("file", "", "PaySim CSV to replay (required)")
	limit               = flag.Int("limit", 0, "Max rows to replay (0 => all)")
	workers             = flag.Int("workers", 10, "Max in-flight HTTP requests (worker pool size)")
	apiURL              = flag.String("apiUrl", "http://localhost:8080", "Fraud API base URL")
	rps                 = flag.Int("rps", 200, "Global requests-per-second limit for outbound POST /predict")
	rpsBurst            = flag.Int("rpsBurst", 0, "Burst size for the limiter (0 => equals rps)")
	httpClientTimeoutMs = flag.Int("httpClientTimeoutMs", 4000, "Total HTTP client timeout (ms)")
	idempotent          = flag.Bool("idempotent", false, "Send an Idempotency-Key per row")
)

func main() {
	flag.Parse()

	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	if *file == "" {
		logger.Fatal("file_flag_required")
	}
	if *rps <= 0 || *workers <= 0 {
		logger.Fatal("rps_and_workers_must_be_positive")
	}
	burst := *rpsBurst
	if burst <= 0 {
		burst = *rps
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("failed_to_open_csv", zap.Error(err))
	}
	defer f.Close()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	replayer := &Replayer{
		apiURL:  *apiURL,
		workers: *workers,
		limiter: rate.NewLimiter(rate.Limit(*rps), burst),
		httpClient: utils.NewHTTPClient(
			utils.WithClientTimeout(time.Duration(*httpClientTimeoutMs)*time.Millisecond),
			utils.WithMaxIdleConnsPerHost(*workers),
		),
		logger:      logger,
		idempotency: *idempotent,
	}

	// progress reporter (1s)
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				logger.Info("progress_tick", replayer.Stats.fields()...)
			}
		}
	}()

	start := time.Now()
	logger.Info("start_replay", zap.String("file", *file), zap.Int("workers", *workers), zap.Int("rps", *rps), zap.Int("burst", burst))
	err = replayer.Run(ctx, f, *limit)
	close(done)
	if err != nil {
		logger.Error("replay_failed", zap.Error(err))
	}
	logger.Info("replay_completed", append(replayer.Stats.fields(), zap.Duration("duration", time.Since(start)))...)
	if err != nil {
		os.Exit(1)
	}
}
