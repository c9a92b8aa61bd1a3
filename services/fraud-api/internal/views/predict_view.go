package views

import (
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
)

// PredictRequest is the /predict body. Pointers let zero values through while still requiring every field.
type PredictRequest struct {
	Step           *int64   `json:"step" binding:"required"`
	Type           *string  `json:"type" binding:"required"`
	Amount         *float64 `json:"amount" binding:"required"`
	NameOrig       *string  `json:"nameOrig" binding:"required"`
	OldBalanceOrg  *float64 `json:"oldbalanceOrg" binding:"required"`
	NewBalanceOrig *float64 `json:"newbalanceOrig" binding:"required"`
	NameDest       *string  `json:"nameDest" binding:"required"`
	OldBalanceDest *float64 `json:"oldbalanceDest" binding:"required"`
	NewBalanceDest *float64 `json:"newbalanceDest" binding:"required"`
}

// ToTransaction must only be called after a successful bind.
func (r PredictRequest) ToTransaction() features.Transaction {
	return features.Transaction{
		Step:           *r.Step,
		Type:           *r.Type,
		Amount:         *r.Amount,
		NameOrig:       *r.NameOrig,
		OldBalanceOrg:  *r.OldBalanceOrg,
		NewBalanceOrig: *r.NewBalanceOrig,
		NameDest:       *r.NameDest,
		OldBalanceDest: *r.OldBalanceDest,
		NewBalanceDest: *r.NewBalanceDest,
	}
}

type ReadyResponse struct {
	Status            string `json:"status"`
	ScalerVersion     string `json:"scalerVersion"`
	ClassifierVersion string `json:"classifierVersion"`
	FeatureCount      int    `json:"featureCount"`
}

type ModelResponse struct {
	// Features is the canonical derivation order; Schema is the order the scaler expects.
	Features []string           `json:"features"`
	Schema   []string           `json:"schema"`
	Metadata inference.Metadata `json:"metadata"`
}
