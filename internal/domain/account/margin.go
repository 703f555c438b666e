// Package account holds the trader-account arithmetic shown across the console.
package account

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MarginSnapshot is the equity/margin pair of a trading account.
type MarginSnapshot struct {
	Equity float64 `json:"equity"`
	Margin float64 `json:"margin"`
}

// MarginLevel returns equity / margin * 100, or 0 when margin is not positive.
func MarginLevel(equity, margin float64) float64 {
	if margin <= 0 {
		return 0
	}
	return equity / margin * 100
}

// Level is MarginLevel for a snapshot.
func (s MarginSnapshot) Level() float64 { return MarginLevel(s.Equity, s.Margin) }

// FormatMarginLevel renders the margin level with one decimal, e.g. "152.3%".
func FormatMarginLevel(s MarginSnapshot) string {
	return strconv.FormatFloat(s.Level(), 'f', 1, 64) + "%"
}

// FormatCurrency renders value with a currency symbol, two decimals and the
// digit grouping of tag, e.g. "$1,234.50" for English and "$1.234,50" for Turkish.
func FormatCurrency(tag language.Tag, value float64, symbol string) string {
	return CurrencyPrinter(tag)(value, symbol)
}

// CurrencyPrinter returns FormatCurrency bound to one locale's printer; reuse
// it when formatting many amounts.
func CurrencyPrinter(tag language.Tag) func(value float64, symbol string) string {
	p := message.NewPrinter(tag)
	return func(value float64, symbol string) string {
		if symbol == "" {
			symbol = "$"
		}
		sign := ""
		if value < 0 {
			sign, value = "-", -value
		}
		return sign + symbol + p.Sprintf("%.2f", value)
	}
}
