package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const Default = "INR"

// Known reports whether code is an ISO currency the formatter understands.
func Known(code string) bool {
	return money.GetCurrency(code) != nil
}

// Format renders amount in the display template of the currency, rounded to
// the currency's minor unit. Unknown codes fall back to "<amount> <code>".
func Format(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}
