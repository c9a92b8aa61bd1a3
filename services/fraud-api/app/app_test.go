package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const transactionBody = `{"step":5,"type":"CASH_OUT","amount":1000,"nameOrig":"C1","oldbalanceOrg":5000,
"newbalanceOrig":4000,"nameDest":"C2","oldbalanceDest":0,"newbalanceDest":1000}`

func newTestServer(t *testing.T, env map[string]string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Setenv("APP_MODEL_SCALER_URI", "../models/scaler.json")
	t.Setenv("APP_MODEL_CLASSIFIER_URI", "../models/classifier.json")
	for k, v := range env {
		t.Setenv(k, v)
	}

	srv, cleanup, err := NewApp(context.Background(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return srv.Handler
}

func call(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewApp_Routes(t *testing.T) {
	// Arrange
	h := newTestServer(t, nil)

	// Act
	health := call(h, http.MethodGet, "/health", "", nil)
	predict := call(h, http.MethodPost, "/predict", transactionBody, nil)
	invalid := call(h, http.MethodPost, "/predict", `{"step":"five"}`, nil)
	metrics := call(h, http.MethodGet, "/metrics", "", nil)
	swagger := call(h, http.MethodGet, "/swagger/doc.json", "", nil)

	// Assert
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, health.Body.String())
	assert.NotEmpty(t, health.Header().Get(pkg.HeaderTraceId))

	require.Equal(t, http.StatusOK, predict.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(predict.Body.Bytes(), &result))
	assert.Contains(t, result, "isFraud")
	assert.Contains(t, result, "fraud_probability")
	assert.Equal(t, "C1", result["transaction"].(map[string]any)["nameOrig"])
	assert.NotEmpty(t, predict.Header().Get(pkg.HeaderTraceId))

	assert.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Contains(t, invalid.Body.String(), pkg.ErrInvalidInputCode.Code)

	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `fraud_scoring_http_requests_total{method="POST",path="/predict",status="200"}`)
	assert.Contains(t, metrics.Body.String(), "fraud_scoring_predictions_total")

	assert.Equal(t, http.StatusOK, swagger.Code)
	assert.Contains(t, swagger.Body.String(), "/predict")
}

func TestNewApp_RateLimitOnlyGuardsPredict(t *testing.T) {
	h := newTestServer(t, map[string]string{
		"APP_RATE_LIMIT_PER_SEC": "1",
		"APP_RATE_LIMIT_BURST":   "1",
	})

	first := call(h, http.MethodPost, "/predict", transactionBody, nil)
	second := call(h, http.MethodPost, "/predict", transactionBody, nil)
	health := call(h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), pkg.ErrRateLimitedCode.Code)
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestNewApp_IdempotencyNeedsRedis(t *testing.T) {
	h := newTestServer(t, nil)
	headers := map[string]string{pkg.HeaderIdempotencyKey: "k1"}

	first := call(h, http.MethodPost, "/predict", transactionBody, headers)
	second := call(h, http.MethodPost, "/predict", transactionBody, headers)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Header().Get(pkg.HeaderIdempotencyHit))
}

func TestNewApp_UnloadableModelIsFatal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Setenv("APP_MODEL_SCALER_URI", "../models/missing.json")
	t.Setenv("APP_MODEL_CLASSIFIER_URI", "../models/classifier.json")
	t.Setenv("APP_ARTIFACT_FETCH_RETRIES", "0")

	srv, _, err := NewApp(context.Background(), zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, srv)
}
