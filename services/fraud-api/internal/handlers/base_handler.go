package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/views"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
	ic     *inference.InferenceContext
}

func NewBaseHandler(logger *zap.Logger, ic *inference.InferenceContext) *BaseHandler {
	return &BaseHandler{logger: logger, ic: ic}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
	r.GET("/ready", b.GetReady)
	r.GET("/model", b.GetModel)
}

// GetHealth is a liveness probe and never inspects state.
// @Summary  Liveness probe
// @Tags     ops
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (b *BaseHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// GetReady reports the loaded artifacts. The listener only starts after they load.
// @Summary  Readiness probe
// @Tags     ops
// @Produce  json
// @Success  200  {object}  views.ReadyResponse
// @Router   /ready [get]
func (b *BaseHandler) GetReady(c *gin.Context) {
	meta := b.ic.Metadata()
	c.JSON(http.StatusOK, views.ReadyResponse{
		Status:            "ready",
		ScalerVersion:     meta.ScalerVersion,
		ClassifierVersion: meta.ClassifierVersion,
		FeatureCount:      meta.FeatureCount,
	})
}

// GetModel godoc
// @Summary  Feature schema and artifact metadata
// @Tags     ops
// @Produce  json
// @Success  200  {object}  views.ModelResponse
// @Router   /model [get]
func (b *BaseHandler) GetModel(c *gin.Context) {
	c.JSON(http.StatusOK, views.ModelResponse{
		Features: features.Names(),
		Schema:   b.ic.Schema(),
		Metadata: b.ic.Metadata(),
	})
}
