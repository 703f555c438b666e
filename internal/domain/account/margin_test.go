package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMarginLevel(t *testing.T) {
	assert.InDelta(t, 150.0, MarginLevel(1500, 1000), 1e-9)
	assert.Zero(t, MarginLevel(1500, 0))
	assert.Zero(t, MarginLevel(1500, -5))
	assert.InDelta(t, 50.0, MarginSnapshot{Equity: 500, Margin: 1000}.Level(), 1e-9)
}

func TestFormatMarginLevel(t *testing.T) {
	assert.Equal(t, "152.3%", FormatMarginLevel(MarginSnapshot{Equity: 1523, Margin: 1000}))
	assert.Equal(t, "0.0%", FormatMarginLevel(MarginSnapshot{Equity: 10}))
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		tag    language.Tag
		value  float64
		symbol string
		want   string
	}{
		{tag: language.English, value: 0, want: "$0.00"},
		{tag: language.English, value: 999, want: "$999.00"},
		{tag: language.English, value: 1000, want: "$1,000.00"},
		{tag: language.English, value: 1234567.5, want: "$1,234,567.50"},
		{tag: language.English, value: 12.346, symbol: "€", want: "€12.35"},
		{tag: language.English, value: -2500, want: "-$2,500.00"},
		{tag: language.Turkish, value: 1234567.5, want: "$1.234.567,50"},
		{tag: language.Turkish, value: -0.5, symbol: "₺", want: "-₺0,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.tag, tt.value, tt.symbol), "%s %v", tt.tag, tt.value)
	}
}
