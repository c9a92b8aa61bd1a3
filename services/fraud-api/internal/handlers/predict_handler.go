package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/services"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/views"
	"go.uber.org/zap"
)

type PredictHandler struct {
	logger   *zap.Logger
	service  services.ScoringService
	recorder *services.PredictionRecorder
}

func NewPredictHandler(logger *zap.Logger, svc services.ScoringService, recorder *services.PredictionRecorder) *PredictHandler {
	return &PredictHandler{logger: logger, service: svc, recorder: recorder}
}

// RegisterRoutes registers the scoring route on r, which carries the rate limit and idempotency middleware.
func (h *PredictHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/predict", h.Predict)
}

// Predict godoc
// @Summary      Score a transaction
// @Description  Derives features, normalizes them and returns the fraud classification.
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        request          body    views.PredictRequest  true   "Transaction record"
// @Param        Idempotency-Key  header  string                false  "Replays the cached reply for a repeated key"
// @Success      200  {object}  services.ScoringResult
// @Failure      400  {object}  pkg.ErrorResponse
// @Failure      409  {object}  pkg.ErrorResponse
// @Failure      422  {object}  pkg.ErrorResponse  "idempotency key reused with a different body"
// @Failure      429  {object}  pkg.ErrorResponse
// @Failure      500  {object}  pkg.ErrorResponse
// @Router       /predict [post]
func (h *PredictHandler) Predict(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	var req views.PredictRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		c.JSON(resp.Status, resp)
		return
	}
	tx := req.ToTransaction()

	result, err := h.service.Score(c.Request.Context(), traceID, tx)
	if err != nil {
		appErr := toAppError(err)
		h.logger.Error("prediction_failed",
			zap.String(pkg.TraceId, traceID),
			zap.String("code", appErr.Code.Code),
			zap.Any("transaction", tx),
			zap.Error(err))
		h.recorder.Dispatch(c.Request.Context(), services.Outcome{
			TraceID:     traceID,
			Transaction: tx,
			Err:         err,
			ErrorCode:   appErr.Code.Code,
		})
		resp := pkg.ToErrorResponse(h.logger, traceID, appErr)
		c.JSON(resp.Status, resp)
		return
	}

	h.recorder.Dispatch(c.Request.Context(), services.Outcome{
		TraceID:     traceID,
		Transaction: tx,
		Result:      &result,
	})
	c.JSON(http.StatusOK, result)
}

// toAppError maps scoring pipeline errors onto response codes.
func toAppError(err error) pkg.AppError {
	var (
		derivation *features.DerivationError
		mismatch   *services.SchemaMismatchError
		inference  *services.ModelInferenceError
	)
	switch {
	case errors.As(err, &derivation):
		return pkg.AppError{Code: pkg.ErrFeatureDerivationCode, Message: pkg.ErrFeatureDerivationCode.Message, Cause: err}
	case errors.As(err, &mismatch):
		return pkg.AppError{Code: pkg.ErrSchemaMismatchCode, Message: pkg.ErrSchemaMismatchCode.Message, Cause: err}
	case errors.As(err, &inference):
		return pkg.AppError{Code: pkg.ErrModelInferenceCode, Message: pkg.ErrModelInferenceCode.Message, Cause: err}
	default:
		return pkg.AppError{Code: pkg.ErrServerCode, Message: pkg.ErrServerCode.Message, Cause: err}
	}
}
