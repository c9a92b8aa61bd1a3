package features

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransaction() Transaction {
	return Transaction{
		Step:           5,
		Type:           TypeCashOutLiteral,
		Amount:         1000,
		NameOrig:       "C123",
		OldBalanceOrg:  5000,
		NewBalanceOrig: 4000,
		NameDest:       "C456",
		OldBalanceDest: 0,
		NewBalanceDest: 1000,
	}
}

func TestDerive_CashOutExample(t *testing.T) {
	// Act
	v, err := Derive(sampleTransaction())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5.0, v.HourOfDay)
	assert.InDelta(t, math.Log(1001), v.LogAmount, 1e-12)
	assert.InDelta(t, math.Log(5001), v.LogBalanceOrig, 1e-12)
	assert.Equal(t, 0.0, v.LogBalanceDest)
	assert.InDelta(t, 1000.0/5001.0, v.AmountRatioOrig, 1e-15)
	assert.Equal(t, 1000.0, v.AmountRatioDest)
	assert.Equal(t, 4000.0, v.NewBalanceOrig)
	assert.Equal(t, 1000.0, v.NewBalanceDest)
	assert.Equal(t, 1.0, v.TypeCashOut)
	assert.Equal(t, 0.0, v.TypeDebit)
	assert.Equal(t, 0.0, v.TypePayment)
	assert.Equal(t, 0.0, v.TypeTransfer)
	assert.Equal(t, 0.0, v.IsFlaggedFraud)
}

func TestDerive_OneHotIsExclusive(t *testing.T) {
	cases := map[string]float64{
		TypeCashOutLiteral:  1,
		TypeDebitLiteral:    1,
		TypePaymentLiteral:  1,
		TypeTransferLiteral: 1,
		"CASH_IN":           0,
		"cash_out":          0,
		"":                  0,
	}
	for typ, wantSum := range cases {
		t.Run(typ, func(t *testing.T) {
			tx := sampleTransaction()
			tx.Type = typ

			v, err := Derive(tx)

			require.NoError(t, err)
			assert.Equal(t, wantSum, v.TypeCashOut+v.TypeDebit+v.TypePayment+v.TypeTransfer)
		})
	}
}

func TestDerive_HourOfDayUsesFlooredModulo(t *testing.T) {
	cases := []struct {
		step int64
		want float64
	}{
		{0, 0},
		{23, 23},
		{24, 0},
		{743, 23},
		{-1, 23},
		{-24, 0},
		{-25, 23},
	}
	for _, tc := range cases {
		tx := sampleTransaction()
		tx.Step = tc.step

		v, err := Derive(tx)

		require.NoError(t, err)
		assert.Equal(t, tc.want, v.HourOfDay, "step %d", tc.step)
		assert.GreaterOrEqual(t, v.HourOfDay, 0.0)
		assert.Less(t, v.HourOfDay, 24.0)
	}
}

func TestDerive_BalanceMinusOneIsDivisionByZero(t *testing.T) {
	tx := sampleTransaction()
	tx.OldBalanceOrg = -1

	_, err := Derive(tx)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, AmountRatioOrig, derr.Feature)
	assert.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestDerive_DestinationBalanceMinusOne(t *testing.T) {
	tx := sampleTransaction()
	tx.OldBalanceDest = -1

	_, err := Derive(tx)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, AmountRatioDest, derr.Feature)
}

func TestDerive_LogDomain(t *testing.T) {
	tx := sampleTransaction()
	tx.Amount = -1

	_, err := Derive(tx)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, LogAmount, derr.Feature)
	assert.ErrorIs(t, err, ErrLogDomain)
	assert.Contains(t, err.Error(), LogAmount)

	tx = sampleTransaction()
	tx.OldBalanceOrg = -2

	_, err = Derive(tx)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, LogBalanceOrig, derr.Feature)
}

func TestDerive_NonFiniteInputsPropagate(t *testing.T) {
	tx := sampleTransaction()
	tx.Amount = math.NaN()

	v, err := Derive(tx)

	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.LogAmount))
	assert.True(t, math.IsNaN(v.AmountRatioOrig))
}

func TestDerive_IsIdempotent(t *testing.T) {
	tx := sampleTransaction()

	first, err := Derive(tx)
	require.NoError(t, err)
	second, err := Derive(tx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Map(), second.Map())
}

func TestVector_MapHasCanonicalKeySet(t *testing.T) {
	v, err := Derive(sampleTransaction())
	require.NoError(t, err)

	m := v.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	want := Names()
	sort.Strings(keys)
	sort.Strings(want)

	assert.Len(t, m, Count)
	assert.Equal(t, want, keys)
}

func TestVector_ValuesFollowNames(t *testing.T) {
	v, err := Derive(sampleTransaction())
	require.NoError(t, err)

	m := v.Map()
	for i, name := range Names() {
		assert.Equal(t, m[name], v.Values()[i], name)
	}
}

func TestNames_ReturnsCopy(t *testing.T) {
	n := Names()
	n[0] = "mutated"

	assert.Equal(t, NewBalanceOrig, Names()[0])
}
