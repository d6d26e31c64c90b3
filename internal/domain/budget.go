package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending target for one expense category.
type Budget struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Icon     string          `json:"icon,omitempty"`
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("budget: missing category")
	}
	if b.Limit.IsNegative() {
		return fmt.Errorf("budget %s: negative limit", b.Category)
	}
	return nil
}

// BudgetAlert is a budget status that crossed a threshold, stamped with the
// time it was raised.
type BudgetAlert struct {
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Percentage float64         `json:"percentage"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	RaisedAt   time.Time       `json:"raised_at"`
}

func (a BudgetAlert) Validate() error {
	if a.Category == "" || a.Status == "" {
		return fmt.Errorf("budget alert: missing category or status")
	}
	if a.RaisedAt.IsZero() {
		return fmt.Errorf("budget alert %s: missing timestamp", a.Category)
	}
	return nil
}
