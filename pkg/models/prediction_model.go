package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
)

// PredictionAudit is one row of prediction_audit.
// NameOrig and NameDest hold AES-GCM ciphertext when an encryption key is configured.
// IsFraud and FraudProbability are nil for failed predictions.
type PredictionAudit struct {
	ID                uuid.UUID
	TraceID           string
	Step              int64
	TransactionType   string
	Amount            float64
	NameOrig          string
	NameDest          string
	Status            pkg.PredictionStatus
	IsFraud           *bool
	FraudProbability  *float64
	ErrorCode         *string
	ErrorMessage      *string
	ScalerVersion     string
	ClassifierVersion string
	CreatedAt         time.Time
}
