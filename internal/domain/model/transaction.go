//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// TransactionType is the direction of a money movement.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether the transaction type is supported.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal:
		return true
	default:
		return false
	}
}

// PendingTransaction is a deposit or withdrawal awaiting staff review.
type PendingTransaction struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id"`
	UserName          string  `json:"user_name"`
	Email             string  `json:"email"`
	AccountID         int64   `json:"account_id"`
	TransactionID     string  `json:"transaction_id"`
	TransactionType   string  `json:"transaction_type"`
	TransactionMethod string  `json:"transaction_method"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	BankName          *string `json:"bank_name"`
	AccountNumber     *string `json:"account_number"`
	CryptoAddress     *string `json:"crypto_address"`
	WalletNetwork     *string `json:"wallet_network"`
	RejectionReason   *string `json:"rejection_reason"`
	ApplicableFee     float64 `json:"applicable_fee"`
	CreatedAt         string  `json:"created_at"`
}

// Transaction is one row of a trader's transaction history.
type Transaction struct {
	TransactionID string  `json:"transaction_id"`
	Type          string  `json:"type"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

// Rejection carries the reason recorded against a rejected transaction.
type Rejection struct {
	Reason string `json:"rejection_reason"`
}
