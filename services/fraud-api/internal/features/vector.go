package features

// Feature names as the model was trained with them.
const (
	NewBalanceOrig  = "newbalanceOrig"
	NewBalanceDest  = "newbalanceDest"
	HourOfDay       = "hour_of_day"
	LogAmount       = "log_amount"
	LogBalanceOrig  = "log_balance_orig"
	LogBalanceDest  = "log_balance_dest"
	AmountRatioOrig = "amount_ratio_orig"
	AmountRatioDest = "amount_ratio_dest"
	TypeCashOut     = "type_CASH_OUT"
	TypeDebit       = "type_DEBIT"
	TypePayment     = "type_PAYMENT"
	TypeTransfer    = "type_TRANSFER"
	IsFlaggedFraud  = "isFlaggedFraud"
)

var names = [...]string{
	NewBalanceOrig,
	NewBalanceDest,
	HourOfDay,
	LogAmount,
	LogBalanceOrig,
	LogBalanceDest,
	AmountRatioOrig,
	AmountRatioDest,
	TypeCashOut,
	TypeDebit,
	TypePayment,
	TypeTransfer,
	IsFlaggedFraud,
}

// Count is the number of features in a Vector.
const Count = len(names)

// Names returns the feature names in declaration order.
// The slice is a copy and may be modified by the caller.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Vector is the derived feature set of one transaction.
// Field order matches Names.
type Vector struct {
	NewBalanceOrig  float64
	NewBalanceDest  float64
	HourOfDay       float64
	LogAmount       float64
	LogBalanceOrig  float64
	LogBalanceDest  float64
	AmountRatioOrig float64
	AmountRatioDest float64
	TypeCashOut     float64
	TypeDebit       float64
	TypePayment     float64
	TypeTransfer    float64
	IsFlaggedFraud  float64
}

// Values returns the features in Names order.
func (v Vector) Values() []float64 {
	return []float64{
		v.NewBalanceOrig,
		v.NewBalanceDest,
		v.HourOfDay,
		v.LogAmount,
		v.LogBalanceOrig,
		v.LogBalanceDest,
		v.AmountRatioOrig,
		v.AmountRatioDest,
		v.TypeCashOut,
		v.TypeDebit,
		v.TypePayment,
		v.TypeTransfer,
		v.IsFlaggedFraud,
	}
}

// Map returns the features keyed by name.
func (v Vector) Map() map[string]float64 {
	values := v.Values()
	m := make(map[string]float64, Count)
	for i, name := range names {
		m[name] = values[i]
	}
	return m
}
