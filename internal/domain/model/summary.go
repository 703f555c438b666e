//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// Summary is the dashboard overview returned by the summary endpoint.
type Summary struct {
	TotalUsers        int     `json:"total_users"`
	OnlineUsers       int     `json:"online_users"`
	MarginCalls       int     `json:"margin_calls"`
	NetProfit         float64 `json:"net_profit"`
	PendingDeposit    float64 `json:"pending_deposit"`
	PendingWithdrawal float64 `json:"pending_withdrawal"`
	TotalDeposit      float64 `json:"total_deposit"`
	TotalWithdrawal   float64 `json:"total_withdrawal"`
}

// MarginCall is an account whose margin level crossed the call threshold.
type MarginCall struct {
	UserID      int64   `json:"user_id"`
	UserName    string  `json:"user_name"`
	MarginLevel float64 `json:"margin_level"`
	Margin      float64 `json:"margin"`
}

// ActiveUser is a trader currently connected to the platform.
type ActiveUser struct {
	UserID       int64   `json:"user_id"`
	UserName     string  `json:"user_name"`
	FirstName    string  `json:"first_name"`
	MarginLevel  float64 `json:"margin_level"`
	LastActivity string  `json:"last_activity"`
}
