package configs

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_MODEL_SCALER_URI", "/models/scaler.json")
	t.Setenv("APP_MODEL_CLASSIFIER_URI", "gs://fraud-models/classifier.json")
}

func TestLoad_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	setRequired(t)

	cfg, err := Load(zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gs://fraud-models/classifier.json", cfg.ModelClassifierURI)
	assert.Equal(t, 3, cfg.ArtifactFetchRetries)
	assert.Equal(t, "24h0m0s", cfg.IdempotencyTTL.String())
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PrimaryDbAddr)
}

func TestLoad_MissingArtifacts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()

	_, err := Load(zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_MODEL_SCALER_URI")
	assert.Contains(t, err.Error(), "APP_MODEL_CLASSIFIER_URI")
}

func TestLoad_DatabaseNeedsKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	setRequired(t)
	t.Setenv("APP_PRIMARY_DB_ADDR", "postgres://localhost:5432/fraud")

	_, err := Load(zap.NewNop())

	assert.ErrorContains(t, err, "APP_AES_KEY (required_with=PrimaryDbAddr KafkaBrokers)")
}

func TestLoad_KafkaNeedsKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	setRequired(t)
	t.Setenv("APP_KAFKA_BROKERS", "localhost:9092")
	t.Setenv("APP_KAFKA_ALERT_TOPIC", "fraud-alerts")

	_, err := Load(zap.NewNop())

	assert.ErrorContains(t, err, "APP_AES_KEY")
}

func TestLoad_OTLPNeedsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	setRequired(t)
	t.Setenv("APP_TRACE_EXPORTER", "otlp")

	_, err := Load(zap.NewNop())

	assert.ErrorContains(t, err, "APP_OTLP_ENDPOINT")
}
