package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/cache"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/database"
	middleware "github.com/nimeshabuddhika/fraud-scoring-service/pkg/middlewares"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/repositories"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/configs"
	_ "github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/docs"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/handlers"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/observability"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// Model artifacts are loaded before anything else; if they fail no server is returned.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// cleanups run in reverse order of acquisition
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*http.Server, func(), error) {
		cleanup()
		return nil, nil, err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OtlpEndpoint,
		Environment:  cfg.Environment(),
	})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer_shutdown_failed", zap.Error(err))
		}
	})

	// Model artifacts
	fetcher := inference.NewFetcher(logger, inference.FetcherConfig{
		Timeout:            cfg.ArtifactFetchTimeout,
		Retries:            cfg.ArtifactFetchRetries,
		GCSCredentialsFile: cfg.GCSCredentialsFile,
	})
	ic, err := inference.Load(ctx, logger, fetcher, cfg.ModelScalerURI, cfg.ModelClassifierURI)
	if err != nil {
		return fail(err)
	}

	// Optional Redis for idempotency and the global rate limit
	var redisClient *redis.Client
	if !utils.IsEmpty(cfg.RedisAddr) {
		client, closeRedis, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeRedis)
		redisClient = client
		logger.Info("redis_connected", zap.String("addr", cfg.RedisAddr))
	}

	sinks, err := newSinks(ctx, logger, cfg, ic, &closers)
	if err != nil {
		return fail(err)
	}
	recorder := services.NewPredictionRecorder(logger, cfg.AuditTimeout, sinks...)
	// drain in-flight audit and alert writes before the sinks close
	closers = append(closers, recorder.Wait)

	// Setup dependencies
	baseHandler := handlers.NewBaseHandler(logger, ic)
	scoringService := services.NewScoringService(logger, ic)
	predictHandler := handlers.NewPredictHandler(logger, scoringService, recorder)
	limiter := pkg.NewDistributedLimiter(redisClient, "ratelimit:predict", cfg.RateLimitPerSec, cfg.RateLimitBurst, logger)

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middleware.TraceID())
	r.Use(middleware.Metrics())

	baseHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	predict := r.Group("/")
	predict.Use(middleware.RateLimit(logger, limiter))
	if redisClient != nil {
		predict.Use(middleware.Idempotency(logger, cache.NewRedisResponseCache(redisClient), cfg.IdempotencyTTL))
	}
	predictHandler.RegisterRoutes(predict)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	return srv, cleanup, nil
}

// newSinks builds the optional audit and alert recorders and registers their closers.
func newSinks(ctx context.Context, logger *zap.Logger, cfg *configs.Config, ic *inference.InferenceContext, closers *[]func()) ([]services.Recorder, error) {
	var sinks []services.Recorder
	if utils.IsEmpty(cfg.PrimaryDbAddr) && utils.IsEmpty(cfg.KafkaBrokers) {
		return sinks, nil
	}

	// both sinks encrypt account names with the same key
	aesKey, err := utils.DecodeString(cfg.AesKey)
	if err != nil {
		return nil, fmt.Errorf("APP_AES_KEY: %w", err)
	}

	if !utils.IsEmpty(cfg.PrimaryDbAddr) {
		dbConfig := database.Config{
			PrimaryDSN: cfg.PrimaryDbAddr,
			MaxConns:   cfg.MaxDbCons,
			MinConns:   cfg.MinDbCons,
		}
		if !utils.IsEmpty(cfg.ReadDbAddr) {
			dbConfig.ReadDSNs = []string{cfg.ReadDbAddr}
		}
		db, disconnect, err := database.New(ctx, logger, dbConfig)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, disconnect)

		// Run migrations on primary
		if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
			return nil, err
		}
		repo := repositories.NewPredictionRepository(db)
		sinks = append(sinks, services.NewAuditRecorder(logger, repo, aesKey, ic.Metadata()))
	}

	if !utils.IsEmpty(cfg.KafkaBrokers) {
		publisher, err := services.NewKafkaAlertPublisher(ctx, logger, services.AlertPublisherConfig{
			Brokers:           cfg.KafkaBrokers,
			Topic:             cfg.KafkaAlertTopic,
			Partitions:        cfg.KafkaPartition,
			Retention:         cfg.KafkaAlertRetention,
			ClassifierVersion: ic.Metadata().ClassifierVersion,
			AESKey:            aesKey,
		})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, publisher.Close)
		sinks = append(sinks, publisher)
	}
	return sinks, nil
}
