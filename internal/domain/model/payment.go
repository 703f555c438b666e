//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// BankSettings is the brokerage's global bank account used for deposits.
type BankSettings struct {
	BankName                     string  `json:"bank_name"`
	BankAccountName              string  `json:"bank_account_name"`
	BankAccountNumber            string  `json:"bank_account_number"`
	BankIBAN                     string  `json:"bank_iban"`
	BankSwiftCode                string  `json:"bank_swift_code"`
	BankDepositFee               float64 `json:"bank_deposit_fee"`
	BankWithdrawalFee            float64 `json:"bank_withdrawal_fee"`
	BankCommissionPerTransaction float64 `json:"bank_commission_per_transaction"`
}

// CryptoWallet is a deposit address for one crypto currency and network.
type CryptoWallet struct {
	ID      int64  `json:"id,omitempty"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Network string `json:"network"`
}
