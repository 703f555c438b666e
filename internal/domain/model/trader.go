//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "strings"

// AccountType distinguishes real-money accounts from practice accounts.
type AccountType string

const (
	AccountTypeLive AccountType = "live"
	AccountTypeDemo AccountType = "demo"
)

// ParseAccountType normalizes a raw query value; anything unknown yields live.
func ParseAccountType(raw string) AccountType {
	switch AccountType(strings.ToLower(strings.TrimSpace(raw))) {
	case AccountTypeDemo:
		return AccountTypeDemo
	default:
		return AccountTypeLive
	}
}

// TraderAccount is one trading account row on the users page.
type TraderAccount struct {
	UserID      int64   `json:"user_id"`
	ShowID      string  `json:"show_id"`
	AccountID   int64   `json:"account_id"`
	Status      bool    `json:"status"`
	Name        string  `json:"name"`
	FirstName   string  `json:"first_name"`
	AccountType string  `json:"account_type"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	FreeMargin  float64 `json:"free_margin"`
	MarginLevel float64 `json:"margin_level"`
	Credit      float64 `json:"credit"`
}

// TraderPage is a paginated slice of trader accounts.
type TraderPage struct {
	Items []TraderAccount `json:"items"`
	Total int             `json:"total"`
	Skip  int             `json:"skip"`
	Limit int             `json:"limit"`
}

// HasNext reports whether another page exists after this one.
func (p TraderPage) HasNext() bool {
	return p.Limit > 0 && p.Skip+len(p.Items) < p.Total
}

// UserVerification is a KYC record for a registered trader.
type UserVerification struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	ShowID         string `json:"show_id"`
	Name           string `json:"name"`
	FirstName      string `json:"first_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"date_of_birth"`
	IDNumber       string `json:"id_number"`
	AccountID      int64  `json:"account_id"`
	AccountNumber  string `json:"account_number"`
	AccountType    string `json:"account_type"`
	Verified       bool   `json:"user_is_verified"`
	Currency       string `json:"currency"`
	DocumentsCount int    `json:"documents_count"`
	CreatedAt      string `json:"created_at"`
}

// PositionStatus selects which positions of a trader to list.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "open"
	PositionPending PositionStatus = "pending"
	PositionClosed  PositionStatus = "closed"
)

// Position is an open, pending or closed trade of one account.
type Position struct {
	UserID      int64   `json:"user_id"`
	PositionID  int64   `json:"pid_id"`
	Symbol      string  `json:"symbol"`
	CreatedTime string  `json:"created_time"`
	CloseTime   string  `json:"close_time,omitempty"`
	Volume      float64 `json:"volume"`
	Direction   string  `json:"direction"`
	EnterPrice  float64 `json:"enter_price"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	Swap        float64 `json:"swap"`
	Commission  float64 `json:"commission"`
	Profit      float64 `json:"profit"`
	NetProfit   float64 `json:"net_profit"`
}

// PositionUpdate is the editable subset of a position.
type PositionUpdate struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Volume     float64 `json:"volume"`
}
