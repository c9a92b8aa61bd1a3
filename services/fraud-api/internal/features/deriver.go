// Package features turns raw transactions into the fixed feature vector the fraud model expects.
package features

import "math"

const hoursPerDay = 24

// Derive computes the feature vector for tx. It is pure and deterministic.
//
// Ratio denominators are checked before the logarithms, so a balance of exactly -1
// reports a division by zero. Non-finite inputs are not rejected here.
func Derive(tx Transaction) (Vector, error) {
	ratioOrig, err := ratio(AmountRatioOrig, tx.Amount, tx.OldBalanceOrg)
	if err != nil {
		return Vector{}, err
	}
	ratioDest, err := ratio(AmountRatioDest, tx.Amount, tx.OldBalanceDest)
	if err != nil {
		return Vector{}, err
	}
	logAmount, err := log1p(LogAmount, tx.Amount)
	if err != nil {
		return Vector{}, err
	}
	logBalanceOrig, err := log1p(LogBalanceOrig, tx.OldBalanceOrg)
	if err != nil {
		return Vector{}, err
	}
	logBalanceDest, err := log1p(LogBalanceDest, tx.OldBalanceDest)
	if err != nil {
		return Vector{}, err
	}

	return Vector{
		NewBalanceOrig:  tx.NewBalanceOrig,
		NewBalanceDest:  tx.NewBalanceDest,
		HourOfDay:       float64(hourOfDay(tx.Step)),
		LogAmount:       logAmount,
		LogBalanceOrig:  logBalanceOrig,
		LogBalanceDest:  logBalanceDest,
		AmountRatioOrig: ratioOrig,
		AmountRatioDest: ratioDest,
		TypeCashOut:     indicator(tx.Type == TypeCashOutLiteral),
		TypeDebit:       indicator(tx.Type == TypeDebitLiteral),
		TypePayment:     indicator(tx.Type == TypePaymentLiteral),
		TypeTransfer:    indicator(tx.Type == TypeTransferLiteral),
		IsFlaggedFraud:  0, // not observable at inference time
	}, nil
}

// hourOfDay is step modulo 24 with floored semantics, so negative steps still land in [0, 24).
func hourOfDay(step int64) int64 {
	h := step % hoursPerDay
	if h < 0 {
		h += hoursPerDay
	}
	return h
}

func log1p(feature string, x float64) (float64, error) {
	if x <= -1 {
		return 0, &DerivationError{Feature: feature, Input: x, Err: ErrLogDomain}
	}
	return math.Log1p(x), nil
}

// ratio is amount / (balance + 1).
func ratio(feature string, amount, balance float64) (float64, error) {
	denominator := balance + 1
	if denominator == 0 {
		return 0, &DerivationError{Feature: feature, Input: balance, Err: ErrDivisionByZero}
	}
	return amount / denominator, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
