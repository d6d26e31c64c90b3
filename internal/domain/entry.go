package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

func (t *EntryType) UnmarshalText(text []byte) error {
	switch v := EntryType(text); v {
	case EntryIncome, EntryExpense:
		*t = v
		return nil
	}
	return fmt.Errorf("unknown entry type %q", string(text))
}

// Entry is a manually recorded income or expense used by budgets and goals.
type Entry struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        EntryType       `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (e Entry) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("entry: missing id")
	case !e.Amount.IsPositive():
		return fmt.Errorf("entry %s: amount must be positive", e.ID)
	case e.Date.IsZero():
		return fmt.Errorf("entry %s: missing date", e.ID)
	}
	return nil
}
