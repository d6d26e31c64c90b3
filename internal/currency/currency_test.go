package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		code     string
		contains string
	}{
		{"usd", "1234.5", "USD", "1,234.50"},
		{"inr rounds to paise", "37.499", "INR", "37.50"},
		{"unknown code", "10", "XXZ", "10.00 XXZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(decimal.RequireFromString(tt.amount), tt.code)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("INR"))
	assert.True(t, Known("EUR"))
	assert.False(t, Known("XXZ"))
}
