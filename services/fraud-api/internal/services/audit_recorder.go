package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/models"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/repositories"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
	"go.uber.org/zap"
)

const maxAuditMessageLen = 1024

// AuditRecorder writes every outcome to prediction_audit with account names encrypted.
type AuditRecorder struct {
	logger *zap.Logger
	repo   repositories.PredictionRepository
	aesKey []byte
	model  inference.Metadata
}

func NewAuditRecorder(logger *zap.Logger, repo repositories.PredictionRepository, aesKey []byte, model inference.Metadata) *AuditRecorder {
	return &AuditRecorder{logger: logger, repo: repo, aesKey: aesKey, model: model}
}

func (a *AuditRecorder) Name() string { return "postgres_audit" }

func (a *AuditRecorder) Record(ctx context.Context, o Outcome) error {
	nameOrig, err := utils.EncryptAES([]byte(o.Transaction.NameOrig), a.aesKey)
	if err != nil {
		return fmt.Errorf("encrypt nameOrig: %w", err)
	}
	nameDest, err := utils.EncryptAES([]byte(o.Transaction.NameDest), a.aesKey)
	if err != nil {
		return fmt.Errorf("encrypt nameDest: %w", err)
	}

	row := models.PredictionAudit{
		ID:                uuid.New(),
		TraceID:           o.TraceID,
		Step:              o.Transaction.Step,
		TransactionType:   o.Transaction.Type,
		Amount:            o.Transaction.Amount,
		NameOrig:          nameOrig,
		NameDest:          nameDest,
		ScalerVersion:     a.model.ScalerVersion,
		ClassifierVersion: a.model.ClassifierVersion,
		CreatedAt:         o.At,
	}
	if o.Err != nil {
		msg := truncateUTF8(o.Err.Error(), maxAuditMessageLen)
		code := o.ErrorCode
		row.Status = pkg.PredictionStatusFailed
		row.ErrorCode = &code
		row.ErrorMessage = &msg
	} else if o.Result != nil {
		isFraud := o.Result.IsFraud
		probability := o.Result.FraudProbability
		row.Status = pkg.PredictionStatusScored
		row.IsFraud = &isFraud
		row.FraudProbability = &probability
	}

	if err = a.repo.Create(ctx, row); err != nil {
		return pkg.HandleSQLError(o.TraceID, a.logger, err)
	}
	return nil
}

// truncateUTF8 cuts s to at most n bytes on a rune boundary and replaces invalid sequences,
// since Postgres rejects TEXT values that are not valid UTF-8.
func truncateUTF8(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
