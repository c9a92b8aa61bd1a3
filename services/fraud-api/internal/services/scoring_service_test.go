package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/features"
	"github.com/nimeshabuddhika/fraud-scoring-service/services/fraud-api/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubNormalizer struct {
	names []string
	err   error
	seen  []float64
}

func (s *stubNormalizer) FeatureNames() []string { return s.names }
func (s *stubNormalizer) Transform(x []float64) ([]float64, error) {
	s.seen = append([]float64(nil), x...)
	if s.err != nil {
		return nil, s.err
	}
	return x, nil
}

type stubClassifier struct {
	label       int
	probability float64
	err         error
}

func (s stubClassifier) Predict([]float64) (int, error) { return s.label, s.err }
func (s stubClassifier) PredictProbability([]float64) (float64, error) {
	return s.probability, s.err
}

func cashOut() features.Transaction {
	return features.Transaction{
		Step:           5,
		Type:           features.TypeCashOutLiteral,
		Amount:         1000,
		NameOrig:       "C123",
		OldBalanceOrg:  5000,
		NewBalanceOrig: 4000,
		NameDest:       "C456",
		OldBalanceDest: 0,
		NewBalanceDest: 1000,
	}
}

func newStubService(t *testing.T, n *stubNormalizer, c stubClassifier) ScoringService {
	t.Helper()
	ic, err := inference.NewInferenceContext(n, c, inference.Metadata{})
	require.NoError(t, err)
	return NewScoringService(zap.NewNop(), ic)
}

func TestScore_BundledModel(t *testing.T) {
	fetcher := inference.NewFetcher(zap.NewNop(), inference.FetcherConfig{})
	ic, err := inference.Load(context.Background(), zap.NewNop(), fetcher, "../../models/scaler.json", "../../models/classifier.json")
	require.NoError(t, err)
	svc := NewScoringService(zap.NewNop(), ic)

	res, err := svc.Score(context.Background(), "trace-1", cashOut())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.FraudProbability, 0.0)
	assert.LessOrEqual(t, res.FraudProbability, 1.0)
	assert.Equal(t, res.FraudProbability > inference.DecisionThreshold, res.IsFraud)
	assert.Equal(t, cashOut(), res.Transaction)

	again, err := svc.Score(context.Background(), "trace-2", cashOut())
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestScore_ReordersToSchema(t *testing.T) {
	names := features.Names()
	// reverse the training order
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	n := &stubNormalizer{names: names}
	svc := newStubService(t, n, stubClassifier{label: 1, probability: 0.9})

	res, err := svc.Score(context.Background(), "t", cashOut())

	require.NoError(t, err)
	assert.True(t, res.IsFraud)
	assert.Equal(t, 0.9, res.FraudProbability)

	v, err := features.Derive(cashOut())
	require.NoError(t, err)
	m := v.Map()
	require.Len(t, n.seen, len(names))
	for i, name := range names {
		assert.Equal(t, m[name], n.seen[i], name)
	}
}

func TestScore_LabelZeroIsNotFraud(t *testing.T) {
	svc := newStubService(t, &stubNormalizer{names: features.Names()}, stubClassifier{label: 0, probability: 0.2})

	res, err := svc.Score(context.Background(), "t", cashOut())

	require.NoError(t, err)
	assert.False(t, res.IsFraud)
}

func TestScore_SchemaMismatch(t *testing.T) {
	names := features.Names()
	names[len(names)-1] = "velocity_24h" // drop isFlaggedFraud
	svc := newStubService(t, &stubNormalizer{names: names}, stubClassifier{})

	_, err := svc.Score(context.Background(), "t", cashOut())

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"velocity_24h"}, mismatch.Missing)
	assert.Equal(t, []string{features.IsFlaggedFraud}, mismatch.Extra)
	assert.Contains(t, err.Error(), "velocity_24h")
}

func TestScore_DerivationError(t *testing.T) {
	svc := newStubService(t, &stubNormalizer{names: features.Names()}, stubClassifier{})
	tx := cashOut()
	tx.OldBalanceOrg = -1

	_, err := svc.Score(context.Background(), "t", tx)

	var derr *features.DerivationError
	require.ErrorAs(t, err, &derr)
	assert.ErrorIs(t, err, features.ErrDivisionByZero)
}

func TestScore_NormalizerFailure(t *testing.T) {
	boom := errors.New("input contains NaN")
	svc := newStubService(t, &stubNormalizer{names: features.Names(), err: boom}, stubClassifier{})

	_, err := svc.Score(context.Background(), "t", cashOut())

	var inf *ModelInferenceError
	require.ErrorAs(t, err, &inf)
	assert.Equal(t, "normalize", inf.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestScore_ClassifierFailure(t *testing.T) {
	svc := newStubService(t, &stubNormalizer{names: features.Names()}, stubClassifier{err: errors.New("bad row")})

	_, err := svc.Score(context.Background(), "t", cashOut())

	var inf *ModelInferenceError
	require.ErrorAs(t, err, &inf)
	assert.Equal(t, "classify", inf.Stage)
}

func TestScore_NonFiniteAmountFailsInScaler(t *testing.T) {
	fetcher := inference.NewFetcher(zap.NewNop(), inference.FetcherConfig{})
	ic, err := inference.Load(context.Background(), zap.NewNop(), fetcher, "../../models/scaler.json", "../../models/classifier.json")
	require.NoError(t, err)
	tx := cashOut()
	tx.Amount = math.Inf(1)

	_, err = NewScoringService(zap.NewNop(), ic).Score(context.Background(), "t", tx)

	var inf *ModelInferenceError
	assert.ErrorAs(t, err, &inf)
}

func TestValidateSchemaAndReorder(t *testing.T) {
	f := map[string]float64{"b": 2, "a": 1, "c": 3}

	require.NoError(t, validateSchema(f, []string{"c", "a", "b"}))
	assert.Equal(t, []float64{3, 1, 2}, reorder(f, []string{"c", "a", "b"}))
	assert.Equal(t, []float64{1, 2, 3}, reorder(f, []string{"a", "b", "c"}))

	err := validateSchema(f, []string{"a", "b"})
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Empty(t, mismatch.Missing)
	assert.Equal(t, []string{"c"}, mismatch.Extra)
}
