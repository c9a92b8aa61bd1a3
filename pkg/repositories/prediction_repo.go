package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/models"
)

// Executor is the subset of *database.DB the repository needs.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PredictionRepository interface {
	// Create inserts one audit row.
	Create(ctx context.Context, audit models.PredictionAudit) error
	// FindByTraceID returns audit rows for a trace, oldest first.
	FindByTraceID(ctx context.Context, traceID string) ([]models.PredictionAudit, error)
}

type PredictionRepositoryImpl struct {
	db Executor
}

func NewPredictionRepository(db Executor) PredictionRepository {
	return &PredictionRepositoryImpl{db: db}
}

func (p PredictionRepositoryImpl) Create(ctx context.Context, a models.PredictionAudit) error {
	tag, err := p.db.Exec(ctx, `
		INSERT INTO prediction_audit (id, trace_id, step, transaction_type, amount, name_orig, name_dest,
		                              status, is_fraud, fraud_probability, error_code, error_message,
		                              scaler_version, classifier_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID,
		a.TraceID,
		a.Step,
		a.TransactionType,
		a.Amount,
		a.NameOrig,
		a.NameDest,
		a.Status,
		a.IsFraud,
		a.FraudProbability,
		a.ErrorCode,
		a.ErrorMessage,
		a.ScalerVersion,
		a.ClassifierVersion,
		a.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return errors.New("prediction audit row not inserted")
	}
	return nil
}

func (p PredictionRepositoryImpl) FindByTraceID(ctx context.Context, traceID string) ([]models.PredictionAudit, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, trace_id, step, transaction_type, amount, name_orig, name_dest, status, is_fraud,
		       fraud_probability, error_code, error_message, scaler_version, classifier_version, created_at
		FROM prediction_audit
		WHERE trace_id = $1
		ORDER BY created_at`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PredictionAudit
	for rows.Next() {
		var a models.PredictionAudit
		if err = rows.Scan(
			&a.ID,
			&a.TraceID,
			&a.Step,
			&a.TransactionType,
			&a.Amount,
			&a.NameOrig,
			&a.NameDest,
			&a.Status,
			&a.IsFraud,
			&a.FraudProbability,
			&a.ErrorCode,
			&a.ErrorMessage,
			&a.ScalerVersion,
			&a.ClassifierVersion,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
