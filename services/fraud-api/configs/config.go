package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is read from APP_-prefixed env vars, optionally seeded by configs/config.<mode>.yaml.
// Redis, Postgres and Kafka are each switched on by setting their address.
type Config struct {
	Port string `mapstructure:"PORT" validate:"required"`

	ModelScalerURI       string        `mapstructure:"MODEL_SCALER_URI" validate:"required"`
	ModelClassifierURI   string        `mapstructure:"MODEL_CLASSIFIER_URI" validate:"required"`
	ArtifactFetchTimeout time.Duration `mapstructure:"ARTIFACT_FETCH_TIMEOUT" validate:"gt=0"`
	ArtifactFetchRetries int           `mapstructure:"ARTIFACT_FETCH_RETRIES" validate:"min=0,max=10"`
	GCSCredentialsFile   string        `mapstructure:"GCS_CREDENTIALS_FILE"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	IdempotencyTTL  time.Duration `mapstructure:"IDEMPOTENCY_TTL" validate:"gt=0"`
	RateLimitPerSec int           `mapstructure:"RATE_LIMIT_PER_SEC" validate:"min=0"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST" validate:"min=0"`

	PrimaryDbAddr string        `mapstructure:"PRIMARY_DB_ADDR"`
	ReadDbAddr    string        `mapstructure:"READ_DB_ADDR"`
	MaxDbCons     int32         `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32         `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1,ltefield=MaxDbCons"`
	AesKey        string        `mapstructure:"AES_KEY" validate:"required_with=PrimaryDbAddr KafkaBrokers"`
	AuditTimeout  time.Duration `mapstructure:"AUDIT_TIMEOUT" validate:"gt=0"`

	KafkaBrokers        string        `mapstructure:"KAFKA_BROKERS"`
	KafkaAlertTopic     string        `mapstructure:"KAFKA_ALERT_TOPIC" validate:"required_with=KafkaBrokers"`
	KafkaPartition      int           `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaAlertRetention time.Duration `mapstructure:"KAFKA_ALERT_RETENTION" validate:"gt=0"`

	TraceExporter string `mapstructure:"TRACE_EXPORTER" validate:"oneof=none stdout otlp"`
	OtlpEndpoint  string `mapstructure:"OTLP_ENDPOINT" validate:"required_if=TraceExporter otlp"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ARTIFACT_FETCH_TIMEOUT", "30s")
	viper.SetDefault("ARTIFACT_FETCH_RETRIES", "3")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("RATE_LIMIT_PER_SEC", "0")
	viper.SetDefault("RATE_LIMIT_BURST", "0")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("AUDIT_TIMEOUT", "2s")
	viper.SetDefault("KAFKA_ALERT_TOPIC", "fraud-alerts")
	viper.SetDefault("KAFKA_PARTITION", "3")
	viper.SetDefault("KAFKA_ALERT_RETENTION", "168h")
	viper.SetDefault("TRACE_EXPORTER", "none")

	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/fraud-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}

// Environment names the deployment for traces.
func (c *Config) Environment() string {
	if gin.Mode() == gin.ReleaseMode {
		return "production"
	}
	return "development"
}
