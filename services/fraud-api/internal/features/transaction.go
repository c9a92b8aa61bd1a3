package features

// Transaction type literals with a dedicated one-hot indicator.
// Any other value is the baseline category and sets no indicator.
const (
	TypeCashOutLiteral  = "CASH_OUT"
	TypeDebitLiteral    = "DEBIT"
	TypePaymentLiteral  = "PAYMENT"
	TypeTransferLiteral = "TRANSFER"
)

// Transaction is one raw transaction record as submitted for scoring.
// NameOrig and NameDest are carried through untouched and never feed a feature.
type Transaction struct {
	Step           int64   `json:"step"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	NameOrig       string  `json:"nameOrig"`
	OldBalanceOrg  float64 `json:"oldbalanceOrg"`
	NewBalanceOrig float64 `json:"newbalanceOrig"`
	NameDest       string  `json:"nameDest"`
	OldBalanceDest float64 `json:"oldbalanceDest"`
	NewBalanceDest float64 `json:"newbalanceDest"`
}
